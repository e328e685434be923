package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Supported output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Formats lists the accepted --format values
var Formats = []string{FormatText, FormatJSON, FormatCSV}

// Table is a titled grid of cells rendered by the text and csv formats
type Table struct {
	Title  string
	Header []string
	Rows   [][]string
}

// Generate writes data in the requested format. JSON encodes data as-is;
// text and csv render the tables built from it.
func Generate(w io.Writer, format string, data interface{}, tables ...Table) error {
	switch format {
	case FormatText, "":
		return generateText(w, tables)
	case FormatJSON:
		return generateJSON(w, data)
	case FormatCSV:
		return generateCSV(w, tables)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func generateText(w io.Writer, tables []Table) error {
	for i, t := range tables {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if t.Title != "" {
			fmt.Fprintln(w, t.Title)
			fmt.Fprintln(w, strings.Repeat("=", len(t.Title)))
		}
		if len(t.Rows) == 0 {
			fmt.Fprintln(w, "(none)")
			continue
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		if len(t.Header) > 0 {
			fmt.Fprintln(tw, strings.Join(t.Header, "\t"))
		}
		for _, row := range t.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return fmt.Errorf("failed to write table %q: %w", t.Title, err)
		}
	}
	return nil
}

func generateJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

// generateCSV writes every table as its own block: a title row, the header
// and the rows, separated by an empty record.
func generateCSV(w io.Writer, tables []Table) error {
	cw := csv.NewWriter(w)
	for i, t := range tables {
		if i > 0 {
			if err := cw.Write([]string{}); err != nil {
				return err
			}
		}
		if len(tables) > 1 && t.Title != "" {
			if err := cw.Write([]string{"# " + t.Title}); err != nil {
				return err
			}
		}
		if len(t.Header) > 0 {
			if err := cw.Write(t.Header); err != nil {
				return err
			}
		}
		if err := cw.WriteAll(t.Rows); err != nil {
			return fmt.Errorf("failed to write csv table %q: %w", t.Title, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
