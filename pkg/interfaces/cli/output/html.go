package output

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/vsinha/printcenter/pkg/domain/entities"
)

//go:embed templates/*.html
var templateFS embed.FS

var receiptTemplate = template.Must(
	template.New("receipt.html").Funcs(template.FuncMap{
		"datetime": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
		"title":    humanize,
	}).ParseFS(templateFS, "templates/receipt.html"),
)

// ReceiptLine is one label/value row of the order details
type ReceiptLine struct {
	Label string
	Value string
}

// Receipt is the printable summary of an order
type Receipt struct {
	Kind        entities.OrderKind
	Code        string
	Title       string
	Status      string
	Priority    string
	Requester   string
	SubmittedAt time.Time
	Lines       []ReceiptLine
	Attachments []string
	History     []entities.StatusChange
	GeneratedAt time.Time
}

// ReceiptFilename is the download name of an order's receipt
func ReceiptFilename(code string) string {
	return "receipt_" + code + ".html"
}

// RenderReceipt writes the receipt as a standalone HTML document
func RenderReceipt(w io.Writer, r *Receipt) error {
	if err := receiptTemplate.Execute(w, r); err != nil {
		return fmt.Errorf("failed to render receipt %s: %w", r.Code, err)
	}
	return nil
}

// OrderReceipt builds the receipt of a service order, labelling field values
// with the service form.
func OrderReceipt(o *entities.Order, service *entities.Service, requester string, now time.Time) *Receipt {
	r := &Receipt{
		Kind:        entities.KindGeneral,
		Code:        o.Code,
		Status:      string(o.Status),
		Priority:    string(o.Priority),
		Requester:   requester,
		SubmittedAt: o.SubmittedAt,
		History:     o.History,
		Attachments: attachmentLabels(o.Attachments),
		GeneratedAt: now,
	}
	labels := map[string]string{}
	if service != nil {
		r.Title = service.Name
		for _, f := range service.Fields {
			labels[f.ID] = f.Label
		}
	}
	if o.Department != "" {
		r.Lines = append(r.Lines, ReceiptLine{"Department", o.Department})
	}
	for _, v := range o.FieldValues {
		label, ok := labels[v.FieldID]
		if !ok {
			label = v.FieldID
		}
		r.Lines = append(r.Lines, ReceiptLine{label, formatValue(v.Value)})
	}
	return r
}

// DesignReceipt builds the receipt of a design order
func DesignReceipt(o *entities.DesignOrder, requester string, now time.Time) *Receipt {
	r := &Receipt{
		Kind:        entities.KindDesign,
		Code:        o.Code,
		Title:       o.Title,
		Status:      string(o.Status),
		Priority:    string(o.Priority),
		Requester:   requester,
		SubmittedAt: o.SubmittedAt,
		History:     o.History,
		Attachments: attachmentLabels(o.Attachments),
		GeneratedAt: now,
		Lines: []ReceiptLine{
			{"Design type", humanize(string(o.DesignType))},
			{"Size", sizeLabel(o.Size, o.CustomSize)},
			{"Description", o.Description},
		},
	}
	r.Lines = append(r.Lines, confirmationLines(o.ConfirmationDeadline, o.ConfirmedAt)...)
	return r
}

// PrintReceipt builds the receipt of a print order
func PrintReceipt(o *entities.PrintOrder, requester string, now time.Time) *Receipt {
	r := &Receipt{
		Kind:        entities.KindPrint,
		Code:        o.Code,
		Title:       humanize(string(o.PrintType)),
		Status:      string(o.Status),
		Priority:    string(o.Priority),
		Requester:   requester,
		SubmittedAt: o.SubmittedAt,
		History:     o.History,
		Attachments: attachmentLabels(o.Attachments),
		GeneratedAt: now,
		Lines: []ReceiptLine{
			{"Production", humanize(string(o.ProductionDept))},
			{"Size", sizeLabel(o.Size, o.CustomSize)},
			{"Paper", fmt.Sprintf("%s %dg", humanize(string(o.PaperType)), o.PaperWeight)},
			{"Quantity", strconv.Itoa(o.Quantity)},
			{"Sides", strconv.Itoa(o.Sides)},
			{"Pages", strconv.Itoa(o.Pages)},
			{"Delivery", humanize(string(o.DeliveryMethod))},
		},
	}
	if o.ActualQuantity > 0 {
		r.Lines = append(r.Lines, ReceiptLine{"Printed", strconv.Itoa(o.ActualQuantity)})
	}
	r.Lines = append(r.Lines, confirmationLines(o.ConfirmationDeadline, o.ConfirmedAt)...)
	return r
}

func confirmationLines(deadline, confirmed *time.Time) []ReceiptLine {
	var lines []ReceiptLine
	if confirmed != nil {
		lines = append(lines, ReceiptLine{"Confirmed", confirmed.Format("2006-01-02 15:04")})
	} else if deadline != nil {
		lines = append(lines, ReceiptLine{"Confirm by", deadline.Format("2006-01-02 15:04")})
	}
	return lines
}

func attachmentLabels(as []entities.Attachment) []string {
	labels := make([]string, 0, len(as))
	for i := range as {
		labels = append(labels, as[i].Label())
	}
	return labels
}

func sizeLabel(size entities.PaperSize, custom string) string {
	if custom != "" {
		return custom
	}
	return string(size)
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, p := range val {
			parts = append(parts, formatValue(p))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(val)
	}
}

// humanize turns snake_case codes into words: "delivery_install" -> "Delivery install"
func humanize(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
