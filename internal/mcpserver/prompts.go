package mcpserver

import (
	"context"
	"embed"
	"io/fs"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.md
var promptFiles embed.FS

const frontmatterFence = "---\n"

// promptMeta is the YAML header of a prompt file.
type promptMeta struct {
	Description string      `yaml:"description"`
	Arguments   []promptArg `yaml:"arguments"`
}

// promptArg is substituted into the body wherever {{name}} appears.
type promptArg struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Default     string `yaml:"default"`
	Required    bool   `yaml:"required"`
}

func (s *Server) registerPrompts() {
	names, err := fs.Glob(promptFiles, "prompts/*.md")
	if err != nil {
		return
	}
	sort.Strings(names)

	for _, file := range names {
		name := strings.TrimSuffix(strings.TrimPrefix(file, "prompts/"), ".md")
		content, err := promptFiles.ReadFile(file)
		if err != nil {
			s.logger.Debug().Err(err).Str("prompt", name).Msg("skipping prompt")
			continue
		}

		meta, body := parseFrontmatter(content)
		prompt := &mcp.Prompt{Name: name, Description: meta.Description}
		for _, arg := range meta.Arguments {
			prompt.Arguments = append(prompt.Arguments, &mcp.PromptArgument{
				Name:        arg.Name,
				Description: arg.Description,
				Required:    arg.Required,
			})
		}
		s.server.AddPrompt(prompt, makePromptHandler(meta, body))
	}
}

// parseFrontmatter splits a prompt file into its header and body. Content
// without a complete, valid header is returned whole as the body.
func parseFrontmatter(content []byte) (promptMeta, string) {
	text := string(content)
	rest, ok := strings.CutPrefix(text, frontmatterFence)
	if !ok {
		return promptMeta{}, text
	}
	header, body, ok := strings.Cut(rest, "\n"+frontmatterFence)
	if !ok {
		return promptMeta{}, text
	}

	var meta promptMeta
	if err := yaml.Unmarshal([]byte(header), &meta); err != nil {
		return promptMeta{}, text
	}
	return meta, strings.TrimPrefix(body, "\n")
}

// renderPrompt fills {{name}} placeholders from args, falling back to the
// declared defaults.
func renderPrompt(meta promptMeta, body string, args map[string]string) string {
	var pairs []string
	for _, arg := range meta.Arguments {
		value, ok := args[arg.Name]
		if !ok || value == "" {
			value = arg.Default
		}
		pairs = append(pairs, "{{"+arg.Name+"}}", value)
	}
	if len(pairs) == 0 {
		return body
	}
	return strings.NewReplacer(pairs...).Replace(body)
}

func makePromptHandler(meta promptMeta, body string) mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		var args map[string]string
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		return &mcp.GetPromptResult{
			Description: meta.Description,
			Messages: []*mcp.PromptMessage{
				{
					Role:    "user",
					Content: &mcp.TextContent{Text: renderPrompt(meta, body, args)},
				},
			},
		}, nil
	}
}
