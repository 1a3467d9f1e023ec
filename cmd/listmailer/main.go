// Command listmailer manages CSV mailing lists and runs template mail
// merges over them, either in the terminal dashboard or headless.
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/listmailer/internal/app"
	"github.com/nhle/listmailer/internal/logging"
	"github.com/nhle/listmailer/internal/model"
	"github.com/nhle/listmailer/internal/theme"
)

// cli holds the state shared by every command of one invocation.
type cli struct {
	configPath string
	verbose    bool

	logger *zap.Logger
	svc    *app.Services
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "listmailer",
		Short: "Manage mailing lists and run mail merges",
		Long: `listmailer imports CSV contact lists, drops blocked and duplicate
addresses, and sends templated emails to every remaining record.

Without a subcommand it starts the terminal dashboard.`,
		SilenceUsage:       true,
		PersistentPreRunE:  c.setup,
		PersistentPostRunE: c.teardown,
		RunE:               c.runTUI,
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", model.DefaultConfigPath(), "Path to the config file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log to stderr at debug level")

	root.AddCommand(&cobra.Command{
		Use:   "tui",
		Short: "Start the terminal dashboard",
		Args:  cobra.NoArgs,
		RunE:  c.runTUI,
	})
	root.AddCommand(c.importCmd())
	root.AddCommand(c.listsCmd())
	root.AddCommand(c.sendCmd())
	root.AddCommand(c.templatesCmd())
	root.AddCommand(c.usersCmd())

	return root
}

// setup loads the config and opens the database for the command about to run.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := model.LoadConfig(c.configPath)
	if err != nil {
		return err
	}

	c.logger, err = logging.New(cfg.Log, c.verbose)
	if err != nil {
		return err
	}

	c.svc, err = app.Open(cmd.Context(), *cfg, c.configPath, c.logger)
	if err != nil {
		return fmt.Errorf("opening data store: %w", err)
	}
	return nil
}

func (c *cli) teardown(_ *cobra.Command, _ []string) error {
	if c.svc == nil {
		return nil
	}
	err := c.svc.Close()
	_ = c.logger.Sync()
	c.svc = nil
	return err
}

func (c *cli) runTUI(_ *cobra.Command, _ []string) error {
	theme.Apply(c.svc.Config.Display.Theme)

	p := tea.NewProgram(app.New(c.svc), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
