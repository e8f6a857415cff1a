// Command formdoc renders form templates to DOCX and HTML and serves them
// over HTTP.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/benjaminschreck/go-formdoc/pkg/formdoc"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app holds what the commands share after flag parsing.
type app struct {
	logLevel string
	envFile  string

	config *formdoc.Config
	logger *logrus.Logger
	engine *formdoc.Engine
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "formdoc",
		Short: "Render form templates to DOCX and HTML",
		Long: `formdoc builds structured documents from YAML form templates.

Templates describe headings, free text and bordered tables with merged cells.
Placeholders of the form {{field}} and {% if field and field != "" %} ... {% else %} ... {% endif %}
are filled from fields given on the command line or in a YAML file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error, off)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "environment file to load before reading FORMDOC_* settings")

	root.AddCommand(
		newRenderCmd(a),
		newPreviewCmd(a),
		newValidateCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}

	a.config = formdoc.ConfigFromEnvironment()
	if a.logLevel != "" {
		a.config.LogLevel = a.logLevel
	}
	if err := a.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.logger = formdoc.NewLogger(cmd.ErrOrStderr(), a.config.LogLevel)
	a.engine = formdoc.New(a.config, formdoc.WithLogger(a.logger))
	return nil
}
