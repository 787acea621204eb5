package typescript

import (
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/blimu-dev/zod-gen/pkg/config"
	"github.com/blimu-dev/zod-gen/pkg/ir"
	"github.com/blimu-dev/zod-gen/pkg/utils"
)

//go:embed templates/*
var templatesFS embed.FS

// Generator renders one TypeScript module per schema and per operation
type Generator struct {
	logger *slog.Logger
}

// NewGenerator creates a new TypeScript generator. A nil logger discards output.
func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{logger: logger}
}

// GetType returns the generator type identifier
func (g *Generator) GetType() string {
	return "typescript"
}

func funcMap() template.FuncMap {
	fm := sprig.TxtFuncMap()
	fm["pascal"] = utils.ToPascalCase
	fm["camel"] = utils.ToCamelCase
	fm["kebab"] = utils.ToKebabCase
	fm["jsString"] = jsString
	fm["jsdoc"] = jsdoc
	fm["usesExactlyOne"] = usesExactlyOne
	return fm
}

// Generate writes the package for in under client.OutDir
func (g *Generator) Generate(client config.Client, in ir.IR) error {
	srcDir := filepath.Join(client.OutDir, "src")
	for _, dir := range []string{"schemas", "operations"} {
		if err := os.MkdirAll(filepath.Join(srcDir, dir), 0o755); err != nil {
			return err
		}
	}

	r := renderer{client: client, funcs: funcMap(), logger: g.logger}
	zodImport := client.ZodModule()

	r.render("runtime.ts.gotmpl", filepath.Join(srcDir, "runtime.ts"), map[string]any{
		"ZodImport": zodImport,
		"BaseURL":   client.DefaultBaseURL,
	})
	for _, m := range in.Schemas {
		r.render("schema.ts.gotmpl", filepath.Join(srcDir, "schemas", m.Name+".ts"), map[string]any{
			"ZodImport": zodImport,
			"Module":    m,
		})
	}
	for _, op := range in.Operations() {
		r.render("operation.ts.gotmpl", filepath.Join(srcDir, "operations", op.FunctionName+".ts"), newOperationView(op, zodImport))
	}

	var first *ir.Operation
	if ops := in.Operations(); len(ops) > 0 {
		first = &ops[0]
	}
	data := map[string]any{"Client": client, "IR": in, "First": first}
	r.render("index.ts.gotmpl", filepath.Join(srcDir, "index.ts"), data)
	r.render("package.json.gotmpl", filepath.Join(client.OutDir, "package.json"), data)
	r.render("tsconfig.json.gotmpl", filepath.Join(client.OutDir, "tsconfig.json"), data)
	r.render("README.md.gotmpl", filepath.Join(client.OutDir, "README.md"), data)
	if r.err != nil {
		return r.err
	}

	g.logger.Info("client generated", "name", client.Name, "outDir", client.OutDir, "files", r.written)
	return nil
}

// renderer stops at the first failure so Generate can chain renders
type renderer struct {
	client  config.Client
	funcs   template.FuncMap
	logger  *slog.Logger
	written int
	err     error
}

func (r *renderer) render(templateName, targetPath string, data any) {
	if r.err != nil {
		return
	}
	if r.client.ShouldExcludeFile(targetPath) {
		r.logger.Debug("file excluded", "path", targetPath)
		return
	}
	if err := renderFile(templateName, targetPath, r.funcs, data); err != nil {
		r.err = err
		return
	}
	r.written++
}

// renderFile renders a template file to the target path
func renderFile(templateName, targetPath string, funcMap template.FuncMap, data any) error {
	tmplContent, err := templatesFS.ReadFile("templates/" + templateName)
	if err != nil {
		return fmt.Errorf("failed to read template %s: %w", templateName, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcMap).Parse(string(tmplContent))
	if err != nil {
		return fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}

	file, err := os.Create(targetPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", targetPath, err)
	}
	defer file.Close()

	if err := tmpl.Execute(file, data); err != nil {
		return fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	return nil
}
