package generator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/blimu-dev/zod-gen/pkg/config"
	"github.com/blimu-dev/zod-gen/pkg/generator/typescript"
	"github.com/blimu-dev/zod-gen/pkg/ir"
	"github.com/blimu-dev/zod-gen/pkg/openapi"
)

// Generator defines the interface for client generators
type Generator interface {
	// Generate renders a client from the given configuration and compiled document
	Generate(client config.Client, ir ir.IR) error
	// GetType returns the type identifier for this generator (e.g., "typescript")
	GetType() string
}

// Registry manages available generators
type Registry struct {
	generators map[string]Generator
}

// NewRegistry creates a new generator registry
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]Generator),
	}
}

// Register adds a generator to the registry
func (r *Registry) Register(gen Generator) {
	r.generators[gen.GetType()] = gen
}

// Get retrieves a generator by type
func (r *Registry) Get(genType string) (Generator, bool) {
	gen, exists := r.generators[genType]
	return gen, exists
}

// GetAvailableTypes returns all registered generator types, sorted
func (r *Registry) GetAvailableTypes() []string {
	types := make([]string, 0, len(r.generators))
	for t := range r.generators {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// GenerateOptions contains options for client generation
type GenerateOptions struct {
	ConfigPath   string
	SingleClient string
	Fallback     FallbackOptions
}

// FallbackOptions contains fallback options when no config file is provided
type FallbackOptions struct {
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

func (f FallbackOptions) client() config.Client {
	return config.Client{
		Type:                   f.Type,
		OutDir:                 f.OutDir,
		PackageName:            f.PackageName,
		Name:                   f.Name,
		IncludeTags:            f.IncludeTags,
		ExcludeTags:            f.ExcludeTags,
		ZodImport:              f.ZodImport,
		MaxSchemaDepth:         f.MaxSchemaDepth,
		SynthesizeOperationIDs: f.SynthesizeOperationIDs,
		DefaultBaseURL:         f.DefaultBaseURL,
	}
}

// Service provides high-level generation functionality
type Service struct {
	registry *Registry
	logger   *slog.Logger
}

// NewService creates a new generator service with default generators. A nil logger discards output.
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	registry := NewRegistry()
	registry.Register(typescript.NewGenerator(logger))
	return &Service{
		registry: registry,
		logger:   logger,
	}
}

// NewServiceWithRegistry creates a new generator service with a custom registry
func NewServiceWithRegistry(registry *Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		registry: registry,
		logger:   logger,
	}
}

// Generate generates clients based on the provided options
func (s *Service) Generate(ctx context.Context, opts GenerateOptions) error {
	var cfg *config.Config
	var err error

	if opts.ConfigPath == "" {
		if opts.Fallback.Spec == "" || opts.Fallback.Type == "" ||
			opts.Fallback.OutDir == "" || opts.Fallback.PackageName == "" ||
			opts.Fallback.Name == "" {
			return fmt.Errorf("either config path or all fallback options must be provided")
		}
		cfg = &config.Config{
			Spec:    opts.Fallback.Spec,
			Clients: []config.Client{opts.Fallback.client()},
		}
		if err := cfg.Clients[0].Validate(); err != nil {
			return err
		}
	} else {
		cfg, err = config.Load(opts.ConfigPath)
		if err != nil {
			return err
		}
	}

	return s.GenerateFromConfig(ctx, cfg, opts.SingleClient)
}

// GenerateFromConfig loads the document once and generates every configured client,
// or only onlyClient when it is set
func (s *Service) GenerateFromConfig(ctx context.Context, cfg *config.Config, onlyClient string) error {
	doc, err := openapi.LoadDocument(ctx, cfg.Spec)
	if err != nil {
		return err
	}
	operations, schemas := doc.Counts()
	s.logger.Info("document loaded", "spec", cfg.Spec, "operations", operations, "schemas", schemas)

	matched := false
	for _, client := range cfg.Clients {
		if onlyClient != "" && client.Name != onlyClient {
			continue
		}
		matched = true

		generator, exists := s.registry.Get(client.Type)
		if !exists {
			return fmt.Errorf("unsupported client type: %s (available: %s)", client.Type, strings.Join(s.registry.GetAvailableTypes(), ", "))
		}

		// Ensure output directory exists before pre-commands
		if err := os.MkdirAll(client.OutDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory for client %s: %w", client.Name, err)
		}

		if err := s.executeCommand(ctx, client.PreCommand, client.OutDir, "pre-command"); err != nil {
			return fmt.Errorf("pre-generation commands failed for client %s: %w", client.Name, err)
		}

		compiled, err := BuildIR(ctx, doc, OptionsForClient(client, s.logger.With("client", client.Name)))
		if err != nil {
			return fmt.Errorf("client %s: %w", client.Name, err)
		}

		if err := generator.Generate(client, compiled); err != nil {
			return err
		}

		if err := s.executeCommand(ctx, client.PostCommand, client.OutDir, "post-command"); err != nil {
			return fmt.Errorf("post-generation commands failed for client %s: %w", client.Name, err)
		}
	}

	if onlyClient != "" && !matched {
		return fmt.Errorf("no client named %q in config", onlyClient)
	}
	return nil
}

// GetRegistry returns the generator registry
func (s *Service) GetRegistry() *Registry {
	return s.registry
}

// executeCommand executes a single command in Docker Compose array format
func (s *Service) executeCommand(ctx context.Context, command []string, workDir, commandLabel string) error {
	if len(command) == 0 {
		return nil
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = workDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	cmdDescription := strings.Join(command, " ")
	s.logger.Debug("running command", "label", commandLabel, "command", cmdDescription, "dir", workDir)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s (%s) failed: %w", commandLabel, cmdDescription, err)
	}
	return nil
}
