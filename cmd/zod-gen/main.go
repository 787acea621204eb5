package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	cli "github.com/blimu-dev/zod-gen/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var logOpts cli.LogOptions
	root := &cobra.Command{
		Use:           "zod-gen",
		Short:         "Generate zod validators and typed clients from OpenAPI specs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&logOpts.Verbose, "verbose", "v", false, "Log compile progress")
	root.PersistentFlags().StringVar(&logOpts.Format, "log-format", "console", "Log format: console, text or json")

	logger := func() (*slog.Logger, error) {
		return cli.NewLogger(logOpts)
	}

	root.AddCommand(newGenerateCmd(logger))
	root.AddCommand(newValidateCmd(logger))
	root.AddCommand(newInspectCmd(logger))

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newGenerateCmd(logger func() (*slog.Logger, error)) *cobra.Command {
	var p cli.RunGenerateParams

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate validator packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := logger()
			if err != nil {
				return err
			}
			return cli.RunGenerate(cmd.Context(), p, l)
		},
	}

	cmd.Flags().StringVarP(&p.ConfigPath, "config", "c", "", "Path to zodgen.yaml config")
	cmd.Flags().StringVar(&p.SingleClient, "client", "", "Generate only the named client from config")
	// Fallback single-client flags
	cmd.Flags().StringVar(&p.Fallback.Spec, "input", "", "OpenAPI spec file (yaml/json) or URL")
	cmd.Flags().StringVar(&p.Fallback.Type, "type", "typescript", "Client type")
	cmd.Flags().StringVar(&p.Fallback.OutDir, "out", "", "Output directory")
	cmd.Flags().StringVar(&p.Fallback.PackageName, "package-name", "", "Package name")
	cmd.Flags().StringVar(&p.Fallback.Name, "client-name", "", "Client name")
	cmd.Flags().StringArrayVar(&p.Fallback.IncludeTags, "include-tags", nil, "Regex patterns for tags to include")
	cmd.Flags().StringArrayVar(&p.Fallback.ExcludeTags, "exclude-tags", nil, "Regex patterns for tags to exclude")
	cmd.Flags().StringVar(&p.Fallback.ZodImport, "zod-import", "", "Module specifier zod is imported from (default \"zod\")")
	cmd.Flags().IntVar(&p.Fallback.MaxSchemaDepth, "max-schema-depth", 0, "Maximum schema nesting depth (0 selects the default)")
	cmd.Flags().BoolVar(&p.Fallback.SynthesizeOperationIDs, "synthesize-operation-ids", false, "Derive missing operationIds from method and path")
	cmd.Flags().StringVar(&p.Fallback.DefaultBaseURL, "base-url", "", "Base URL the generated client defaults to")

	return cmd
}

func newValidateCmd(logger func() (*slog.Logger, error)) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an OpenAPI spec",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := logger()
			if err != nil {
				return err
			}
			return cli.RunValidate(cmd.Context(), input, l)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "OpenAPI spec file (yaml/json) or URL")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newInspectCmd(logger func() (*slog.Logger, error)) *cobra.Command {
	var p cli.InspectParams
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Compile a spec and print the schemas and response unions it yields",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := logger()
			if err != nil {
				return err
			}
			return cli.RunInspect(cmd.Context(), p, cmd.OutOrStdout(), l)
		},
	}
	cmd.Flags().StringVar(&p.Spec, "input", "", "OpenAPI spec file (yaml/json) or URL")
	cmd.Flags().StringVarP(&p.Format, "format", "f", "yaml", "Output format: yaml or json")
	cmd.Flags().StringArrayVar(&p.IncludeTags, "include-tags", nil, "Regex patterns for tags to include")
	cmd.Flags().StringArrayVar(&p.ExcludeTags, "exclude-tags", nil, "Regex patterns for tags to exclude")
	cmd.Flags().IntVar(&p.MaxSchemaDepth, "max-schema-depth", 0, "Maximum schema nesting depth (0 selects the default)")
	cmd.Flags().BoolVar(&p.SynthesizeOperationIDs, "synthesize-operation-ids", false, "Derive missing operationIds from method and path")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
