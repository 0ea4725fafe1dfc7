package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/analisavet/hemogram-server/internal/database"
	"github.com/analisavet/hemogram-server/internal/reference"
)

func referencesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "references",
		Short: "Inspect and maintain reference range tables",
	}

	// references show
	var format string
	showCmd := &cobra.Command{
		Use:   "show <species>",
		Short: "Print the reference table resolved for a species",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, provider, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer provider.Close()

			res, err := svc.ReferenceValues(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if res.Note != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), res.Note)
			}

			switch strings.ToLower(format) {
			case "yaml":
				data, err := reference.MarshalYAML(res.Table)
				if err != nil {
					return err
				}
				_, err = a.out.Write(data)
				return err
			case "json":
				return a.printJSON(res.Table)
			default:
				for _, r := range res.Table.Ranges {
					fmt.Fprintf(a.out, "%-16s %s\n", r.Parameter, r.Display())
				}
				return nil
			}
		},
	}
	showCmd.Flags().StringVar(&format, "format", "table", "output format: table, json or yaml")
	cmd.AddCommand(showCmd)

	// references export
	cmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Print the built-in tables as YAML, the layout read by the yaml source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := reference.MarshalYAML(reference.BuiltinTables()...)
			if err != nil {
				return err
			}
			_, err = a.out.Write(data)
			return err
		},
	})

	// references sync
	var file string
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Write reference tables into the configured sqlite or postgres store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables := reference.BuiltinTables()
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				if tables, err = reference.ParseYAML(data); err != nil {
					return err
				}
			}

			provider, err := reference.Open(cmd.Context(), a.config, a.logger)
			if err != nil {
				return fmt.Errorf("opening reference source: %w", err)
			}
			defer provider.Close()

			if err := provider.Sync(cmd.Context(), tables); err != nil {
				return err
			}
			species := make([]string, 0, len(tables))
			for _, t := range tables {
				species = append(species, t.Species)
			}
			fmt.Fprintf(a.out, "Synced %d reference table(s) into %s: %s\n", len(tables), provider.Kind, strings.Join(species, ", "))
			return nil
		},
	}
	syncCmd.Flags().StringVar(&file, "file", "", "YAML file with the tables to write (default: built-in tables)")
	cmd.AddCommand(syncCmd)

	return cmd
}

func migrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run postgres schema migrations",
	}

	newRunner := func() (*database.MigrationRunner, error) {
		return database.NewMigrationRunner(database.URL(a.config.Database), a.config.Database.MigrationsPath, a.logger)
	}

	// migrate up
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := newRunner()
			if err != nil {
				return err
			}
			defer runner.Close()
			return runner.Up(cmd.Context())
		},
	})

	// migrate down
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := newRunner()
			if err != nil {
				return err
			}
			defer runner.Close()
			return runner.Down(cmd.Context())
		},
	})

	// migrate version
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := newRunner()
			if err != nil {
				return err
			}
			defer runner.Close()
			v, err := runner.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "version %d (dirty: %v)\n", v.Version, v.Dirty)
			return nil
		},
	})

	return cmd
}
