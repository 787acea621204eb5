package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zodgen.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
spec: openapi.yaml
name: Pets
clients:
  - type: typescript
    outDir: out/pets
    packageName: "@acme/pets"
    name: PetsClient
    zodImport: zod/v4
    maxSchemaDepth: 12
    synthesizeOperationIds: true
    includeTags: ["^pets$"]
    exclude: ["package.json"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !filepath.IsAbs(cfg.Spec) {
		t.Errorf("spec should be absolutised, got %q", cfg.Spec)
	}
	c := cfg.Clients[0]
	if !filepath.IsAbs(c.OutDir) {
		t.Errorf("outDir should be absolutised, got %q", c.OutDir)
	}
	if c.ZodModule() != "zod/v4" || c.SchemaDepth() != 12 || !c.SynthesizeOperationIDs {
		t.Errorf("client options not read: %+v", c)
	}
}

func TestLoadKeepsURLSpec(t *testing.T) {
	path := writeConfig(t, "spec: https://example.com/openapi.json\nclients: []\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Spec != "https://example.com/openapi.json" {
		t.Errorf("spec = %q", cfg.Spec)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		contains string
	}{
		{"no spec", "clients: []\n", "config.spec is required"},
		{"missing fields", "spec: a.yaml\nclients:\n  - type: typescript\n", "clients[0]"},
		{"negative depth", "spec: a.yaml\nclients:\n  - {type: typescript, outDir: o, packageName: p, name: n, maxSchemaDepth: -1}\n", "maxSchemaDepth"},
		{"bad tag pattern", "spec: a.yaml\nclients:\n  - {type: typescript, outDir: o, packageName: p, name: n, excludeTags: [\"(\"]}\n", "invalid tag pattern"},
	}

	for _, test := range tests {
		_, err := Load(writeConfig(t, test.body))
		if err == nil || !strings.Contains(err.Error(), test.contains) {
			t.Errorf("%s: Load() error = %v, expected it to mention %q", test.name, err, test.contains)
		}
	}
}

func TestDefaults(t *testing.T) {
	var c Client
	if c.ZodModule() != DefaultZodImport {
		t.Errorf("ZodModule() = %q, expected %q", c.ZodModule(), DefaultZodImport)
	}
	if c.SchemaDepth() != DefaultMaxSchemaDepth {
		t.Errorf("SchemaDepth() = %d, expected %d", c.SchemaDepth(), DefaultMaxSchemaDepth)
	}
}

func TestShouldExcludeFile(t *testing.T) {
	c := Client{OutDir: "/out", ExcludeFiles: []string{"package.json", "src/schemas/"}}
	tests := []struct {
		input    string
		expected bool
	}{
		{"/out/package.json", true},
		{"/out/src/schemas/Pet.ts", true},
		{"/out/src/runtime.ts", false},
		{"/out/src/schemas.ts", false},
		{"/elsewhere/package.json", false},
	}

	for _, test := range tests {
		result := c.ShouldExcludeFile(test.input)
		if result != test.expected {
			t.Errorf("ShouldExcludeFile(%q) = %v, expected %v", test.input, result, test.expected)
		}
	}
}
