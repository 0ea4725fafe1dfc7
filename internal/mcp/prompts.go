package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/analisavet/hemogram-server/internal/domain"
)

// PromptInterpretHemogram walks a client through extraction, classification
// and a per-parameter summary of one report
var PromptInterpretHemogram = &mcp.Prompt{
	Name:        "interpret_hemogram",
	Description: "Step-by-step workflow to extract, classify and summarize a veterinary hemogram report",
	Arguments: []*mcp.PromptArgument{
		{
			Name:        "report_text",
			Description: "Plain text of the laboratory report",
			Required:    true,
		},
		{
			Name:        "species",
			Description: "Species to classify against (Cão or Gato); read from the report when omitted",
		},
	},
}

func (s *Server) interpretHemogramPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := req.Params.Arguments
	report := strings.TrimSpace(args["report_text"])
	if report == "" {
		return nil, domain.NewValidationError("report_text", "report_text is required", "")
	}
	species := strings.TrimSpace(args["species"])

	var b strings.Builder
	b.WriteString("Interpret the veterinary hemogram below.\n\n")
	b.WriteString("1. Call extract_hemogram_text with the report text.\n")
	if species != "" {
		fmt.Fprintf(&b, "2. Call classify_hemogram with the extracted measurements and species %q.\n", species)
	} else {
		b.WriteString("2. Call classify_hemogram with the extracted measurements and the species found in the patient data.\n")
	}
	b.WriteString("3. If the result carries a note, the default reference table was used. Say so first.\n")
	b.WriteString("4. List each altered parameter with its value, reference range, interpretation and recommendation.\n")
	b.WriteString("5. Report normal parameters in one line. Do not combine parameters into a diagnosis.\n\n")
	b.WriteString("Report:\n")
	b.WriteString(report)

	return &mcp.GetPromptResult{
		Description: "Hemogram interpretation workflow",
		Messages: []*mcp.PromptMessage{{
			Role:    "user",
			Content: &mcp.TextContent{Text: b.String()},
		}},
	}, nil
}
