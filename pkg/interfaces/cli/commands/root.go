// Package commands implements the printcenter command line.
package commands

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vsinha/printcenter/pkg/infrastructure/config"
	"github.com/vsinha/printcenter/pkg/infrastructure/logging"
)

// App carries the state shared by every subcommand once the root command
// has loaded the configuration
type App struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger zerolog.Logger
	errOut io.Writer
}

// NewRootCommand builds the printcenter command tree
func NewRootCommand(version string) *cobra.Command {
	app := &App{logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "printcenter",
		Short: "University print center: orders, inventory, visits and training",
		Long: `printcenter runs the print center API and its maintenance tasks.

Examples:
  printcenter serve --config printcenter.yaml   # HTTP API and periodic checks
  printcenter seed                              # load the demo fixture
  printcenter jobs run check_low_stock          # run one check now
  printcenter report roi --format csv           # savings per service`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.load(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	root.AddCommand(
		newServeCommand(app),
		newSeedCommand(app),
		newJobsCommand(app),
		newUserCommand(app),
		newInventoryCommand(app),
		newReportCommand(app),
	)
	return root
}

func (a *App) load(errOut io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(false); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	a.errOut = errOut
	a.logger = logging.Setup(cfg.Log.Level, cfg.Log.Format, errOut)
	if cfg.File != "" {
		a.logger.Debug().Str("file", cfg.File).Msg("configuration loaded")
	}
	return nil
}
