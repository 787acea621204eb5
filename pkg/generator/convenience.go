package generator

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/blimu-dev/zod-gen/pkg/config"
	"github.com/blimu-dev/zod-gen/pkg/ir"
	"github.com/blimu-dev/zod-gen/pkg/openapi"
)

// GenerateClient is a convenience function for generating a client with minimal configuration
func GenerateClient(ctx context.Context, opts GenerateClientOptions) error {
	service := NewService(opts.Logger)

	genOpts := GenerateOptions{
		ConfigPath:   opts.ConfigPath,
		SingleClient: opts.SingleClient,
		Fallback: FallbackOptions{
			Spec:                   opts.Spec,
			Type:                   opts.Type,
			OutDir:                 opts.OutDir,
			PackageName:            opts.PackageName,
			Name:                   opts.Name,
			IncludeTags:            opts.IncludeTags,
			ExcludeTags:            opts.ExcludeTags,
			ZodImport:              opts.ZodImport,
			SynthesizeOperationIDs: opts.SynthesizeOperationIDs,
		},
	}

	return service.Generate(ctx, genOpts)
}

// GenerateClientOptions contains options for the convenience GenerateClient function
type GenerateClientOptions struct {
	// ConfigPath is the path to the configuration file (optional)
	ConfigPath string

	// SingleClient generates only the named client from config (optional)
	SingleClient string

	// Fallback options when no config file is provided
	Spec                   string   // OpenAPI spec file or URL
	Type                   string   // Generator type (e.g., "typescript")
	OutDir                 string   // Output directory
	PackageName            string   // Package name for the generated client
	Name                   string   // Client name
	IncludeTags            []string // Regex patterns for tags to include
	ExcludeTags            []string // Regex patterns for tags to exclude
	ZodImport              string   // Module specifier zod is imported from
	SynthesizeOperationIDs bool

	Logger *slog.Logger
}

// GenerateTypeScript is a convenience function specifically for TypeScript generation
func GenerateTypeScript(ctx context.Context, spec, outDir, packageName, clientName string) error {
	absOutDir, err := filepath.Abs(outDir)
	if err != nil {
		return err
	}

	return GenerateClient(ctx, GenerateClientOptions{
		Spec:        spec,
		Type:        "typescript",
		OutDir:      absOutDir,
		PackageName: packageName,
		Name:        clientName,
	})
}

// GenerateFromConfig is a convenience function for generating from a config file
func GenerateFromConfig(ctx context.Context, configPath string, singleClient ...string) error {
	service := NewService(nil)
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	onlyClient := ""
	if len(singleClient) > 0 {
		onlyClient = singleClient[0]
	}

	return service.GenerateFromConfig(ctx, cfg, onlyClient)
}

// ValidateSpec validates an OpenAPI specification
func ValidateSpec(ctx context.Context, specPath string) error {
	return openapi.ValidateDocument(ctx, specPath)
}

// CompileSpec loads a document and compiles it without rendering anything
func CompileSpec(ctx context.Context, specPath string, opts BuildOptions) (ir.IR, error) {
	doc, err := openapi.LoadDocument(ctx, specPath)
	if err != nil {
		return ir.IR{}, err
	}
	return BuildIR(ctx, doc, opts)
}
