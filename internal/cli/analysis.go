package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/analisavet/hemogram-server/internal/domain"
	"github.com/analisavet/hemogram-server/internal/ingest"
	"github.com/analisavet/hemogram-server/internal/service"
)

func extractCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract values and patient data from a PDF, CSV or text report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, provider, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer provider.Close()

			ext, err := extractFile(svc, args[0], a.config.Server.MaxUploadBytes)
			if err != nil {
				return err
			}
			return a.printJSON(ext)
		},
	}
}

func classifyCmd(a *app) *cobra.Command {
	var species string

	cmd := &cobra.Command{
		Use:   "classify <file>",
		Short: "Extract a report and classify its values against the species reference ranges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, provider, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer provider.Close()

			ext, err := extractFile(svc, args[0], a.config.Server.MaxUploadBytes)
			if err != nil {
				return err
			}
			analysis, err := svc.Analyze(cmd.Context(), ext, species)
			if err != nil {
				return err
			}
			if analysis.Classificacao.Note != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), analysis.Classificacao.Note)
			}
			return a.printJSON(analysis)
		},
	}
	cmd.Flags().StringVar(&species, "species", "", "species to classify against, overriding the one found in the report")

	return cmd
}

func extractFile(svc *service.HemogramService, path string, maxBytes int64) (*domain.Extraction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := ingest.Read(path, f, maxBytes)
	if err != nil {
		return nil, err
	}
	return svc.ExtractDocument(doc), nil
}
