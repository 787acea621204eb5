package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultZodImport is the module specifier generated code imports zod from
const DefaultZodImport = "zod"

// DefaultMaxSchemaDepth bounds schema nesting unless a client overrides it
const DefaultMaxSchemaDepth = 64

// Config represents the complete configuration for validator generation
type Config struct {
	Spec    string   `yaml:"spec"`
	Name    string   `yaml:"name"`
	Clients []Client `yaml:"clients"`
}

// Client represents configuration for a single generated package
type Client struct {
	Type        string   `yaml:"type"`
	OutDir      string   `yaml:"outDir"`
	PackageName string   `yaml:"packageName"`
	Name        string   `yaml:"name"`
	IncludeTags []string `yaml:"includeTags"`
	ExcludeTags []string `yaml:"excludeTags"`
	// ZodImport is the module specifier zod is imported from, e.g. "zod/v4"
	ZodImport string `yaml:"zodImport"`
	// MaxSchemaDepth limits schema nesting; 0 selects DefaultMaxSchemaDepth
	MaxSchemaDepth int `yaml:"maxSchemaDepth"`
	// SynthesizeOperationIDs derives an operationId from method and path for operations that lack one
	SynthesizeOperationIDs bool `yaml:"synthesizeOperationIds"`
	// PreCommand is an optional command to run in the output directory before generation.
	// Uses Docker Compose array format: ["npm", "ci"]
	PreCommand []string `yaml:"preCommand"`
	// PostCommand is an optional command to run in the output directory after generation.
	// Uses Docker Compose array format: ["npx", "prettier", "--write", "src"]
	PostCommand []string `yaml:"postCommand"`
	// DefaultBaseURL is used by the generated client when the caller passes no base URL
	DefaultBaseURL string `yaml:"defaultBaseURL"`
	// ExcludeFiles is a list of file paths (relative to outDir) that should not be generated
	// Example: ["package.json", "src/runtime.ts"]
	ExcludeFiles []string `yaml:"exclude"`
}

// ZodModule returns the configured zod module specifier
func (c *Client) ZodModule() string {
	if c.ZodImport == "" {
		return DefaultZodImport
	}
	return c.ZodImport
}

// SchemaDepth returns the configured nesting limit
func (c *Client) SchemaDepth() int {
	if c.MaxSchemaDepth == 0 {
		return DefaultMaxSchemaDepth
	}
	return c.MaxSchemaDepth
}

// ShouldExcludeFile checks if a file path should be excluded based on the ExcludeFiles list.
// targetPath should be an absolute path, and the comparison is done relative to OutDir.
func (c *Client) ShouldExcludeFile(targetPath string) bool {
	if len(c.ExcludeFiles) == 0 {
		return false
	}

	relPath, err := filepath.Rel(c.OutDir, targetPath)
	if err != nil {
		return false
	}
	relPath = filepath.ToSlash(relPath)
	if relPath == "." {
		relPath = ""
	}

	for _, excludePattern := range c.ExcludeFiles {
		normalizedExclude := strings.TrimSuffix(filepath.ToSlash(excludePattern), "/")
		if relPath == normalizedExclude {
			return true
		}
		// "src/" excludes everything below src
		if normalizedExclude != "" && strings.HasPrefix(relPath, normalizedExclude+"/") {
			return true
		}
	}
	return false
}

// Validate checks one client entry
func (c *Client) Validate() error {
	if c.Type == "" || c.OutDir == "" || c.PackageName == "" || c.Name == "" {
		return errors.New("missing required fields (type, outDir, packageName, name)")
	}
	if c.MaxSchemaDepth < 0 {
		return fmt.Errorf("maxSchemaDepth must not be negative, got %d", c.MaxSchemaDepth)
	}
	for _, pattern := range append(append([]string{}, c.IncludeTags...), c.ExcludeTags...) {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("invalid tag pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// IsURL reports whether spec is an HTTP(S) URL rather than a file path
func IsURL(spec string) bool {
	u, err := url.Parse(spec)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Spec == "" {
		return nil, errors.New("config.spec is required")
	}
	for i := range cfg.Clients {
		c := &cfg.Clients[i]
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("clients[%d]: %w", i, err)
		}
		if !filepath.IsAbs(c.OutDir) {
			abs, _ := filepath.Abs(c.OutDir)
			c.OutDir = abs
		}
	}
	if !IsURL(cfg.Spec) && !filepath.IsAbs(cfg.Spec) {
		abs, _ := filepath.Abs(cfg.Spec)
		cfg.Spec = abs
	}
	return &cfg, nil
}
