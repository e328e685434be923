package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/application/services"
	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/printcenter/pkg/interfaces/cli/output"
)

func newInventoryCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Import, export and list stock items",
	}

	importCmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Create or update items from a CSV file, matched by SKU",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := csv.NewLoader().LoadInventoryFile(args[0])
			if err != nil {
				return err
			}
			rt, err := app.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.close(app.logger)

			res, err := rt.svc.Inventory.Import(cmd.Context(), services.SystemActor(), itemInputs(items))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📦 Imported %s: %d created, %d updated\n", args[0], res.Created, res.Updated)
			return nil
		},
	}

	var file string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write every item as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := app.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.close(app.logger)

			items, err := rt.svc.Inventory.ListItems(cmd.Context(), services.SystemActor(), dto.ItemFilter{})
			if err != nil {
				return err
			}
			var w io.Writer = cmd.OutOrStdout()
			if file != "" {
				f, err := os.Create(file)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", file, err)
				}
				defer f.Close()
				w = f
			}
			return csv.NewLoader().WriteInventory(w, items)
		},
	}
	exportCmd.Flags().StringVarP(&file, "output", "o", "", "Write to a file instead of stdout")

	var (
		format string
		filter dto.ItemFilter
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := app.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.close(app.logger)

			items, err := rt.svc.Inventory.ListItems(cmd.Context(), services.SystemActor(), filter)
			if err != nil {
				return err
			}
			return output.Generate(cmd.OutOrStdout(), format, items, output.ItemTables(items)...)
		},
	}
	listCmd.Flags().StringVar(&format, "format", output.FormatText, "Output format (text, json, csv)")
	listCmd.Flags().BoolVar(&filter.LowStock, "low-stock", false, "Only items at or below their minimum")
	listCmd.Flags().StringVar(&filter.Search, "search", "", "Match name or SKU")

	cmd.AddCommand(importCmd, exportCmd, listCmd)
	return cmd
}

func itemInputs(items []*entities.InventoryItem) []dto.ItemInput {
	inputs := make([]dto.ItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, dto.ItemInput{
			Name:             item.Name,
			SKU:              item.SKU,
			Category:         item.Category,
			Unit:             item.Unit,
			CurrentQuantity:  item.CurrentQuantity,
			MinimumThreshold: item.MinimumThreshold,
			MinQuantity:      item.MinQuantity,
			MaximumThreshold: item.MaximumThreshold,
			ReorderPoint:     item.ReorderPoint,
			Notes:            item.Notes,
		})
	}
	return inputs
}
