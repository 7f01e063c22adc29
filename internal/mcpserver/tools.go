package mcpserver

import (
	"bytes"
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pygenii/genii/internal/output"
	"github.com/pygenii/genii/internal/report"
	"github.com/pygenii/genii/internal/service/analysis"
	"github.com/pygenii/genii/pkg/config"
)

// AnalyzeInput is the base input for all tools.
type AnalyzeInput struct {
	Paths        []string `json:"paths,omitempty" jsonschema:"Modules, directories or glob patterns to analyze. Directories are searched recursively. Defaults to the current directory."`
	Format       string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, markdown or text."`
	Threshold    *int     `json:"threshold,omitempty" jsonschema:"Complexity above which a function is critical. Default 7."`
	Exceptions   bool     `json:"exceptions,omitempty" jsonschema:"Count every except handler as a decision point."`
	ReturnPolicy string   `json:"return_policy,omitempty" jsonschema:"Which returns count as exits: all (default) or nested."`
}

// ComplexityInput selects the optional tables.
type ComplexityInput struct {
	AnalyzeInput
	Complexity   bool `json:"complexity,omitempty" jsonschema:"Include the full complexity table."`
	Summary      bool `json:"summary,omitempty" jsonschema:"Include the per-kind summary."`
	Modules      bool `json:"modules,omitempty" jsonschema:"Include per-module statistics."`
	Distribution bool `json:"distribution,omitempty" jsonschema:"Include the complexity distribution."`
	All          bool `json:"all,omitempty" jsonschema:"Include every optional table."`
}

// CriticalInput has no options beyond the base input.
type CriticalInput struct {
	AnalyzeInput
}

func getPaths(input AnalyzeInput) []string {
	if len(input.Paths) == 0 {
		return []string{"."}
	}
	return input.Paths
}

func getFormat(input AnalyzeInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	case "text":
		return output.FormatText
	default:
		return output.FormatTOON
	}
}

// configFor derives the configuration of one call from the server's.
func (s *Server) configFor(input AnalyzeInput) (*config.Config, error) {
	cfg := *s.config
	cfg.Analysis.Recursive = true
	if input.Exceptions {
		cfg.Analysis.Exceptions = true
	}
	if input.ReturnPolicy != "" {
		cfg.Analysis.ReturnPolicy = input.ReturnPolicy
	}
	if input.Threshold != nil {
		cfg.Thresholds.Complexity = *input.Threshold
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *Server) run(ctx context.Context, input AnalyzeInput) (*analysis.Result, *config.Config, error) {
	cfg, err := s.configFor(input)
	if err != nil {
		return nil, nil, err
	}

	opts := []analysis.Option{analysis.WithConfig(cfg), analysis.WithLogger(s.logger)}
	if s.cache != nil {
		opts = append(opts, analysis.WithCache(s.cache))
	}

	result, err := analysis.New(opts...).Run(ctx, getPaths(input))
	if err != nil {
		return nil, nil, err
	}
	return result, cfg, nil
}

func formatOutput(data any, format output.Format) (string, error) {
	var buf bytes.Buffer
	f := output.NewWriterFormatter(format, &buf, false)
	if err := f.Output(data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func (s *Server) handleAnalyzeComplexity(ctx context.Context, req *mcp.CallToolRequest, input ComplexityInput) (*mcp.CallToolResult, any, error) {
	result, cfg, err := s.run(ctx, input.AnalyzeInput)
	if errors.Is(err, analysis.ErrNoModules) {
		return toolError(report.MsgNoFiles)
	}
	if err != nil {
		return toolError(err.Error())
	}

	opts := report.Options{
		Threshold:    cfg.Thresholds.Complexity,
		Complexity:   input.Complexity,
		Summary:      input.Summary,
		Modules:      input.Modules,
		Distribution: input.Distribution,
	}
	if input.All {
		opts = opts.All()
	}

	return toolResult(report.Build(result.Stats, result.Failed, opts), getFormat(input.AnalyzeInput))
}

func (s *Server) handleCriticalFunctions(ctx context.Context, req *mcp.CallToolRequest, input CriticalInput) (*mcp.CallToolResult, any, error) {
	result, cfg, err := s.run(ctx, input.AnalyzeInput)
	if errors.Is(err, analysis.ErrNoModules) {
		return toolError(report.MsgNoFiles)
	}
	if err != nil {
		return toolError(err.Error())
	}

	r := report.Build(result.Stats, result.Failed, report.Options{Threshold: cfg.Thresholds.Complexity})
	return toolResult(r, getFormat(input.AnalyzeInput))
}
