package commands

import (
	"github.com/spf13/cobra"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/application/services"
	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/interfaces/cli/output"
)

func newReportCommand(app *App) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print order, productivity, inventory and ROI reports",
	}
	cmd.PersistentFlags().StringVar(&format, "format", output.FormatText, "Output format (text, json, csv)")

	// withServices runs fn against the store as the system actor
	withServices := func(cmd *cobra.Command, fn func(*services.Services, *entities.User) error) error {
		rt, err := app.open(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer rt.close(app.logger)
		return fn(rt.svc, services.SystemActor())
	}

	var (
		filter dto.OrderReportFilter
		kind   string
	)
	orders := &cobra.Command{
		Use:   "orders",
		Short: "Order counts by kind and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter.Type = entities.OrderKind(kind)
			return withServices(cmd, func(svc *services.Services, actor *entities.User) error {
				r, err := svc.Reports.Orders(cmd.Context(), actor, filter)
				if err != nil {
					return err
				}
				return output.Generate(cmd.OutOrStdout(), format, r, output.OrdersTables(r)...)
			})
		},
	}
	of := orders.Flags()
	of.StringVar(&filter.EntityID, "entity", "", "Limit to one org unit")
	of.StringVar(&filter.CollegeID, "college", "", "Limit to the units under a college")
	of.StringVar(&filter.ViceRectorateID, "vice-rectorate", "", "Limit to the units under a vice-rectorate")
	of.StringVar(&filter.Start, "start", "", "First day, YYYY-MM-DD")
	of.StringVar(&filter.End, "end", "", "Last day, YYYY-MM-DD")
	of.StringVar(&kind, "type", "", "Order kind (general, design, print)")

	var date string
	productivity := &cobra.Command{
		Use:   "productivity",
		Short: "Completed and pending design and print orders for one day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd, func(svc *services.Services, actor *entities.User) error {
				r, err := svc.Reports.Productivity(cmd.Context(), actor, date)
				if err != nil {
					return err
				}
				return output.Generate(cmd.OutOrStdout(), format, r, output.ProductivityTables(r)...)
			})
		},
	}
	productivity.Flags().StringVar(&date, "date", "", "Day to report, YYYY-MM-DD (defaults to today)")

	inventory := &cobra.Command{
		Use:   "inventory",
		Short: "Low-stock items and stock movements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd, func(svc *services.Services, actor *entities.User) error {
				r, err := svc.Reports.Inventory(cmd.Context(), actor)
				if err != nil {
					return err
				}
				return output.Generate(cmd.OutOrStdout(), format, r, output.InventoryTables(r)...)
			})
		},
	}

	roi := &cobra.Command{
		Use:   "roi",
		Short: "Savings of internal over external pricing per service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd, func(svc *services.Services, actor *entities.User) error {
				r, err := svc.Reports.ROI(cmd.Context(), actor)
				if err != nil {
					return err
				}
				return output.Generate(cmd.OutOrStdout(), format, r, output.ROITables(r)...)
			})
		},
	}

	cmd.AddCommand(orders, productivity, inventory, roi)
	return cmd
}
