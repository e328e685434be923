package commands

import (
	"github.com/spf13/cobra"

	"github.com/vsinha/printcenter/pkg/application/jobs"
	"github.com/vsinha/printcenter/pkg/interfaces/cli/output"
)

func newJobsCommand(app *App) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and run the periodic checks",
	}
	cmd.PersistentFlags().StringVar(&format, "format", output.FormatText, "Output format (text, json, csv)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List the periodic checks and their intervals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all := jobs.Jobs(app.cfg.Jobs)
			table := output.Table{Title: "Jobs", Header: []string{"Name", "Interval"}}
			for _, j := range all {
				interval := j.Interval.String()
				if j.Interval <= 0 {
					interval = "disabled"
				}
				table.Rows = append(table.Rows, []string{j.Name, interval})
			}
			return output.Generate(cmd.OutOrStdout(), format, all, table)
		},
	}

	run := &cobra.Command{
		Use:   "run [name...]",
		Short: "Run checks once; all of them when no name is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := app.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.close(app.logger)

			scheduler := jobs.NewScheduler(rt.svc.Maintenance, jobs.Jobs(app.cfg.Jobs), nil, app.logger)
			results, runErr := scheduler.RunOnce(cmd.Context(), args...)
			if err := output.Generate(cmd.OutOrStdout(), format, results, output.JobTables(results)...); err != nil {
				return err
			}
			return runErr
		},
	}

	cmd.AddCommand(list, run)
	return cmd
}
