package mcpserver

import "encoding/json"

const (
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
	manifestName   = "io.github.pygenii/genii"
	repositoryURL  = "https://github.com/pygenii/genii"
	imageName      = "ghcr.io/pygenii/genii"
)

// Manifest is the registry description of the server (server.json).
type Manifest struct {
	Schema      string     `json:"$schema"`
	Name        string     `json:"name"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description"`
	Version     string     `json:"version"`
	Repository  Repository `json:"repository"`
	Packages    []Package  `json:"packages"`
}

type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package tells a registry client how to launch genii as an MCP server.
type Package struct {
	RegistryType         string        `json:"registryType"`
	Identifier           string        `json:"identifier"`
	PackageArguments     []Argument    `json:"packageArguments,omitempty"`
	EnvironmentVariables []EnvVariable `json:"environmentVariables,omitempty"`
	Transport            Transport     `json:"transport"`
}

type Argument struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

type EnvVariable struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsRequired  bool   `json:"isRequired"`
}

type Transport struct {
	Type string `json:"type"`
}

// GenerateManifest renders server.json for version, which defaults to 0.0.0.
func GenerateManifest(version string) ([]byte, error) {
	if version == "" {
		version = "0.0.0"
	}

	image := Package{
		RegistryType:     "oci",
		Identifier:       imageName + ":" + version,
		PackageArguments: []Argument{{Type: "positional", Value: "mcp"}},
		EnvironmentVariables: []EnvVariable{
			{Name: "GENII_CONFIG", Description: "Path to a genii.toml, genii.yaml or genii.json file"},
		},
		Transport: Transport{Type: "stdio"},
	}

	return json.MarshalIndent(Manifest{
		Schema:      manifestSchema,
		Name:        manifestName,
		Title:       "genii",
		Description: "McCabe complexity analysis for Python modules",
		Version:     version,
		Repository:  Repository{URL: repositoryURL, Source: "github"},
		Packages:    []Package{image},
	}, "", "  ")
}
