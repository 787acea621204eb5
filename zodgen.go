// Package zodgen compiles OpenAPI 3.x documents into zod validators and typed,
// content-negotiating TypeScript clients.
//
// Quick Start:
//
//	import "github.com/blimu-dev/zod-gen"
//
//	err := zodgen.GenerateTypeScript(ctx,
//		"./openapi.yaml",
//		"./generated",
//		"@acme/pets",
//		"PetsClient",
//	)
//
// Compiled operations can also drive requests from Go, see the runtime package.
package zodgen

import (
	"context"

	"github.com/blimu-dev/zod-gen/pkg/generator"
	"github.com/blimu-dev/zod-gen/pkg/ir"
)

// GenerateTypeScript generates a TypeScript package from an OpenAPI document with minimal configuration.
//
// Parameters:
//   - spec: Path to OpenAPI specification file or HTTP(S) URL
//   - outDir: Output directory for the generated package
//   - packageName: NPM package name for the generated package
//   - clientName: Name of the client
func GenerateTypeScript(ctx context.Context, spec, outDir, packageName, clientName string) error {
	return generator.GenerateTypeScript(ctx, spec, outDir, packageName, clientName)
}

// Generate generates a package with full configuration options.
//
// Example:
//
//	err := zodgen.Generate(ctx, zodgen.GenerateOptions{
//		Spec:        "./openapi.yaml",
//		Type:        "typescript",
//		OutDir:      "./my-client",
//		PackageName: "my-api-client",
//		Name:        "MyAPIClient",
//		ZodImport:   "zod/v4",
//		ExcludeTags: []string{"internal"},
//	})
func Generate(ctx context.Context, opts GenerateOptions) error {
	return generator.GenerateClient(ctx, opts)
}

// GenerateFromConfig generates packages from a YAML configuration file.
// Optionally, you can specify a single client name to generate only that client.
func GenerateFromConfig(ctx context.Context, configPath string, singleClient ...string) error {
	return generator.GenerateFromConfig(ctx, configPath, singleClient...)
}

// ValidateSpec validates an OpenAPI specification file.
func ValidateSpec(ctx context.Context, specPath string) error {
	return generator.ValidateSpec(ctx, specPath)
}

// CompileDocument compiles every schema and operation of a document without writing files
func CompileDocument(ctx context.Context, specPath string, opts generator.BuildOptions) (ir.IR, error) {
	return generator.CompileSpec(ctx, specPath, opts)
}

// GenerateOptions contains options for package generation
type GenerateOptions = generator.GenerateClientOptions
