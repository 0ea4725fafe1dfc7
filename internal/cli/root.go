// Package cli implements the hemogram command line tool: offline extraction
// and classification of report files, reference table maintenance and schema
// migrations.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/analisavet/hemogram-server/internal/config"
	"github.com/analisavet/hemogram-server/internal/domain"
	"github.com/analisavet/hemogram-server/internal/logging"
	"github.com/analisavet/hemogram-server/internal/reference"
	"github.com/analisavet/hemogram-server/internal/service"
)

// app holds what every subcommand needs once flags are parsed
type app struct {
	configFile string
	out        io.Writer

	config *domain.Config
	logger *logrus.Logger
}

// NewRootCommand builds the command tree writing results to out
func NewRootCommand(out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:           "hemogram",
		Short:         "Extract and classify veterinary hemogram reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "configuration file (default: config.yaml in ., ./config or /etc/hemogram-server)")

	rootCmd.AddCommand(extractCmd(a))
	rootCmd.AddCommand(classifyCmd(a))
	rootCmd.AddCommand(referencesCmd(a))
	rootCmd.AddCommand(migrateCmd(a))

	return rootCmd
}

// Execute runs the command line tool
func Execute() {
	if err := NewRootCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) load() error {
	manager, err := config.NewManagerFromFile(a.configFile)
	if err != nil {
		return err
	}
	if err := manager.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	a.config = manager.GetConfig()
	// results go to stdout, diagnostics to stderr
	a.config.Logging.Output = "stderr"
	a.logger = logging.New(a.config.Logging)
	return nil
}

// openService opens the configured reference source and builds the service.
// The returned provider must be closed by the caller.
func (a *app) openService(ctx context.Context) (*service.HemogramService, *reference.Provider, error) {
	provider, err := reference.Open(ctx, a.config, a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening reference source: %w", err)
	}
	svc := service.NewHemogramService(provider.Source, service.HemogramServiceConfig{
		DefaultSpecies: a.config.Reference.DefaultSpecies,
		StrictSpecies:  a.config.Reference.StrictSpecies,
	}, a.logger)
	return svc, provider, nil
}

func (a *app) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
