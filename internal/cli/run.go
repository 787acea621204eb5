package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/blimu-dev/zod-gen/pkg/config"
	"github.com/blimu-dev/zod-gen/pkg/generator"
	"github.com/blimu-dev/zod-gen/pkg/ir"
	"github.com/blimu-dev/zod-gen/pkg/openapi"
)

type FallbackParams struct {
	Spec                   string
	Type                   string
	OutDir                 string
	PackageName            string
	Name                   string
	IncludeTags            []string
	ExcludeTags            []string
	ZodImport              string
	MaxSchemaDepth         int
	SynthesizeOperationIDs bool
	DefaultBaseURL         string
}

type RunGenerateParams struct {
	ConfigPath   string
	SingleClient string
	Fallback     FallbackParams
}

func RunValidate(ctx context.Context, input string, logger *slog.Logger) error {
	if err := openapi.ValidateDocument(ctx, input); err != nil {
		return err
	}
	logger.Info("document is valid", "spec", input)
	return nil
}

func RunGenerate(ctx context.Context, p RunGenerateParams, logger *slog.Logger) error {
	service := generator.NewService(logger)
	if p.ConfigPath == "" {
		if p.Fallback.Spec == "" || p.Fallback.OutDir == "" || p.Fallback.PackageName == "" || p.Fallback.Name == "" {
			return errors.New("either --config or all of --input, --out, --package-name, --client-name must be provided")
		}
		typ := p.Fallback.Type
		if typ == "" {
			typ = "typescript"
		}
		client := config.Client{
			Type:                   typ,
			OutDir:                 absPath(p.Fallback.OutDir),
			PackageName:            p.Fallback.PackageName,
			Name:                   p.Fallback.Name,
			IncludeTags:            p.Fallback.IncludeTags,
			ExcludeTags:            p.Fallback.ExcludeTags,
			ZodImport:              p.Fallback.ZodImport,
			MaxSchemaDepth:         p.Fallback.MaxSchemaDepth,
			SynthesizeOperationIDs: p.Fallback.SynthesizeOperationIDs,
			DefaultBaseURL:         p.Fallback.DefaultBaseURL,
		}
		if err := client.Validate(); err != nil {
			return err
		}
		spec := p.Fallback.Spec
		if !config.IsURL(spec) {
			spec = absPath(spec)
		}
		return service.GenerateFromConfig(ctx, &config.Config{Spec: spec, Clients: []config.Client{client}}, "")
	}

	cfg, err := config.Load(p.ConfigPath)
	if err != nil {
		return err
	}
	return service.GenerateFromConfig(ctx, cfg, p.SingleClient)
}

// InspectParams selects the document and output format of the inspect command
type InspectParams struct {
	Spec                   string
	Format                 string
	IncludeTags            []string
	ExcludeTags            []string
	MaxSchemaDepth         int
	SynthesizeOperationIDs bool
}

type inspectReport struct {
	Title    string           `json:"title,omitempty" yaml:"title,omitempty"`
	Version  string           `json:"version,omitempty" yaml:"version,omitempty"`
	Schemas  []inspectSchema  `json:"schemas" yaml:"schemas"`
	Services []inspectService `json:"services" yaml:"services"`
}

type inspectSchema struct {
	Name       string `json:"name" yaml:"name"`
	Recursive  bool   `json:"recursive,omitempty" yaml:"recursive,omitempty"`
	Expression string `json:"expression" yaml:"expression"`
}

type inspectService struct {
	Tag        string             `json:"tag" yaml:"tag"`
	Operations []inspectOperation `json:"operations" yaml:"operations"`
}

type inspectOperation struct {
	Function     string   `json:"function" yaml:"function"`
	Method       string   `json:"method" yaml:"method"`
	Path         string   `json:"path" yaml:"path"`
	Union        string   `json:"union" yaml:"union"`
	Variants     []string `json:"variants" yaml:"variants"`
	ResponseMap  bool     `json:"responseMap" yaml:"responseMap"`
	InlineSchema []string `json:"inlineSchemas,omitempty" yaml:"inlineSchemas,omitempty"`
}

func newInspectReport(in ir.IR) inspectReport {
	r := inspectReport{Title: in.Title, Version: in.Version}
	for _, m := range in.Schemas {
		r.Schemas = append(r.Schemas, inspectSchema{Name: m.Name, Recursive: m.Recursive, Expression: m.Schema.Expression})
	}
	for _, s := range in.Services {
		svc := inspectService{Tag: s.Tag}
		for _, op := range s.Operations {
			o := inspectOperation{
				Function:    op.FunctionName,
				Method:      op.Method,
				Path:        op.Path,
				Union:       op.Union.Name,
				ResponseMap: op.ContentTypes.Response != nil,
			}
			for _, v := range op.Union.Variants {
				o.Variants = append(o.Variants, v.TypeScript)
			}
			for _, ns := range op.InlineSchemas {
				o.InlineSchema = append(o.InlineSchema, ns.Name)
			}
			svc.Operations = append(svc.Operations, o)
		}
		r.Services = append(r.Services, svc)
	}
	return r
}

// RunInspect compiles a document and prints what would be generated, without writing files
func RunInspect(ctx context.Context, p InspectParams, out io.Writer, logger *slog.Logger) error {
	compiled, err := generator.CompileSpec(ctx, p.Spec, generator.BuildOptions{
		IncludeTags:            p.IncludeTags,
		ExcludeTags:            p.ExcludeTags,
		MaxSchemaDepth:         p.MaxSchemaDepth,
		SynthesizeOperationIDs: p.SynthesizeOperationIDs,
		Logger:                 logger,
	})
	if err != nil {
		return err
	}
	report := newInspectReport(compiled)

	switch p.Format {
	case "", "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	default:
		return fmt.Errorf("unknown format %q (expected yaml or json)", p.Format)
	}
}

func absPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	abs, _ := filepath.Abs(p)
	return abs
}
