package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pygenii/genii/internal/cache"
	"github.com/pygenii/genii/internal/output"
	"github.com/pygenii/genii/internal/report"
)

// busySource defines busy() with eight decisions and no return: 8 - 1 + 2 = 9.
func busySource() string {
	var b strings.Builder
	b.WriteString("def simple():\n    return 1\n\n\ndef busy(x):\n")
	for i := 1; i <= 8; i++ {
		fmt.Fprintf(&b, "    if x == %d:\n        print(%d)\n", i, i)
	}
	return b.String()
}

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pkg"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg", "work.py"), []byte(busySource()), 0644))
	return dir
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content is %T", result.Content[0])
	return tc.Text
}

func TestServerCreation(t *testing.T) {
	server := NewServer("1.0.0-test")
	require.NotNil(t, server)
	assert.NotNil(t, server.server)
	assert.NotNil(t, server.config)
}

func TestServerCreationEmptyVersion(t *testing.T) {
	assert.NotNil(t, NewServer(""))
}

func TestToolDescriptions(t *testing.T) {
	descriptions := map[string]func() string{
		"complexity": describeComplexity,
		"critical":   describeCritical,
	}

	for name, fn := range descriptions {
		t.Run(name, func(t *testing.T) {
			desc := fn()
			assert.Contains(t, desc, "USE WHEN:")
			assert.Contains(t, desc, "INTERPRETING RESULTS:")
			assert.Contains(t, desc, "METRICS RETURNED:")
		})
	}
}

func TestGetPaths(t *testing.T) {
	tests := []struct {
		name     string
		input    AnalyzeInput
		expected []string
	}{
		{"nil paths default to current dir", AnalyzeInput{Paths: nil}, []string{"."}},
		{"empty slice defaults to current dir", AnalyzeInput{Paths: []string{}}, []string{"."}},
		{"paths returned as-is", AnalyzeInput{Paths: []string{"/foo", "/bar"}}, []string{"/foo", "/bar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, getPaths(tt.input))
		})
	}
}

func TestGetFormat(t *testing.T) {
	tests := []struct {
		format   string
		expected output.Format
	}{
		{"", output.FormatTOON},
		{"json", output.FormatJSON},
		{"markdown", output.FormatMarkdown},
		{"md", output.FormatMarkdown},
		{"text", output.FormatText},
		{"toon", output.FormatTOON},
		{"xml", output.FormatTOON},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.expected, getFormat(AnalyzeInput{Format: tt.format}))
		})
	}
}

func TestToolError(t *testing.T) {
	result, _, err := toolError("test error message")
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "Error: test error message", textOf(t, result))
}

func TestFormatOutput(t *testing.T) {
	data := map[string]any{"name": "test", "value": 123}

	for _, format := range []string{"", "toon", "json", "markdown", "text"} {
		t.Run(format, func(t *testing.T) {
			out, err := formatOutput(data, getFormat(AnalyzeInput{Format: format}))
			require.NoError(t, err)
			assert.NotEmpty(t, out)
		})
	}
}

func TestConfigFor(t *testing.T) {
	s := NewServer("test")
	threshold := 3

	cfg, err := s.configFor(AnalyzeInput{Threshold: &threshold, Exceptions: true, ReturnPolicy: "nested"})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Thresholds.Complexity)
	assert.True(t, cfg.Analysis.Exceptions)
	assert.Equal(t, "nested", cfg.Analysis.ReturnPolicy)
	assert.True(t, cfg.Analysis.Recursive)

	// The server's own config is left alone.
	assert.Equal(t, 7, s.config.Thresholds.Complexity)
	assert.False(t, s.config.Analysis.Exceptions)

	_, err = s.configFor(AnalyzeInput{ReturnPolicy: "sometimes"})
	assert.Error(t, err)
}

func TestHandleAnalyzeComplexity(t *testing.T) {
	dir := writeProject(t)
	s := NewServer("test")

	result, _, err := s.handleAnalyzeComplexity(context.Background(), nil, ComplexityInput{
		AnalyzeInput: AnalyzeInput{Paths: []string{dir}, Format: "json"},
		All:          true,
	})
	require.NoError(t, err)
	require.False(t, result.IsError, textOf(t, result))

	var data report.Data
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &data))

	require.Len(t, data.Critical, 1)
	assert.Equal(t, "work.busy", data.Critical[0].Name)
	assert.Equal(t, 9, data.Critical[0].Complexity)
	assert.Len(t, data.Complexity, 3)
	assert.Len(t, data.Modules, 1)
	assert.NotNil(t, data.Distribution)
}

func TestHandleAnalyzeComplexity_Threshold(t *testing.T) {
	dir := writeProject(t)
	s := NewServer("test")
	threshold := 9

	result, _, err := s.handleAnalyzeComplexity(context.Background(), nil, ComplexityInput{
		AnalyzeInput: AnalyzeInput{Paths: []string{dir}, Format: "text", Threshold: &threshold},
	})
	require.NoError(t, err)
	assert.Contains(t, textOf(t, result), report.MsgAllGood)
}

func TestHandleCriticalFunctions(t *testing.T) {
	dir := writeProject(t)
	s := NewServer("test")

	result, _, err := s.handleCriticalFunctions(context.Background(), nil, CriticalInput{
		AnalyzeInput: AnalyzeInput{Paths: []string{dir}},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := textOf(t, result)
	assert.Contains(t, text, "work.busy")
	assert.NotContains(t, text, "work.simple")
}

func TestHandleWithCache(t *testing.T) {
	dir := writeProject(t)
	c, err := cache.New(filepath.Join(t.TempDir(), "cache"), time.Hour, true)
	require.NoError(t, err)

	s := NewServer("test", WithCache(c))
	result, _, err := s.handleCriticalFunctions(context.Background(), nil, CriticalInput{
		AnalyzeInput: AnalyzeInput{Paths: []string{dir}},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	st, err := c.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 1, st.Entries)
}

func TestEmptyPathsError(t *testing.T) {
	s := NewServer("test")

	result, _, err := s.handleAnalyzeComplexity(context.Background(), nil, ComplexityInput{
		AnalyzeInput: AnalyzeInput{Paths: []string{t.TempDir()}},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), report.MsgNoFiles)
}

func TestParseFrontmatter(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantDesc string
		wantBody string
	}{
		{"with frontmatter", "---\ndescription: Review\n---\n\nBody text\n", "Review", "Body text\n"},
		{"without frontmatter", "Just a body\n", "", "Just a body\n"},
		{"unterminated", "---\ndescription: x\n", "", "---\ndescription: x\n"},
		{"invalid yaml", "---\ndescription: [\n---\nBody\n", "", "---\ndescription: [\n---\nBody\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, body := parseFrontmatter([]byte(tt.content))
			assert.Equal(t, tt.wantDesc, meta.Description)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestRenderPrompt(t *testing.T) {
	meta := promptMeta{Arguments: []promptArg{{Name: "path", Default: "."}, {Name: "threshold", Default: "7"}}}
	body := "analyze {{path}} above {{threshold}}"

	tests := []struct {
		name string
		args map[string]string
		want string
	}{
		{"defaults", nil, "analyze . above 7"},
		{"override", map[string]string{"path": "src", "threshold": "10"}, "analyze src above 10"},
		{"empty value uses default", map[string]string{"path": ""}, "analyze . above 7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderPrompt(meta, body, tt.args))
		})
	}

	assert.Equal(t, "plain", renderPrompt(promptMeta{}, "plain", nil))
}

func TestPromptFiles(t *testing.T) {
	entries, err := promptFiles.ReadDir("prompts")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, entry := range entries {
		t.Run(entry.Name(), func(t *testing.T) {
			content, err := promptFiles.ReadFile("prompts/" + entry.Name())
			require.NoError(t, err)
			meta, body := parseFrontmatter(content)
			assert.NotEmpty(t, meta.Description)
			assert.NotEmpty(t, body)
			for _, arg := range meta.Arguments {
				assert.Contains(t, body, "{{"+arg.Name+"}}")
			}
		})
	}
}

func TestGenerateManifest(t *testing.T) {
	data, err := GenerateManifest("1.2.3")
	require.NoError(t, err)

	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "1.2.3", m.Version)
	require.Len(t, m.Packages, 1)
	assert.Equal(t, "ghcr.io/pygenii/genii:1.2.3", m.Packages[0].Identifier)
	assert.Equal(t, "stdio", m.Packages[0].Transport.Type)
	require.Len(t, m.Packages[0].EnvironmentVariables, 1)
	assert.Equal(t, "GENII_CONFIG", m.Packages[0].EnvironmentVariables[0].Name)

	data, err = GenerateManifest("")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": "0.0.0"`)
}

func TestServerSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewServer("test")
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	_, err := s.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"analyze_complexity", "critical_functions"}, names)

	prompts, err := session.ListPrompts(ctx, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, prompts.Prompts)

	prompt, err := session.GetPrompt(ctx, &mcp.GetPromptParams{
		Name:      "refactor-critical",
		Arguments: map[string]string{"path": "src"},
	})
	require.NoError(t, err)
	require.Len(t, prompt.Messages, 1)
	text, ok := prompt.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, `paths: ["src"]`)
	assert.Contains(t, text.Text, "threshold: 7")

	dir := writeProject(t)
	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "critical_functions",
		Arguments: map[string]any{"paths": []string{dir}, "format": "json"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, textOf(t, result), `"work.busy"`)
}
