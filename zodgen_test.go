package zodgen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/blimu-dev/zod-gen/pkg/generator"
)

func TestValidateSpecMissingFile(t *testing.T) {
	if err := ValidateSpec(context.Background(), "/no/such/file.yaml"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestCompileDocument(t *testing.T) {
	spec := filepath.Join(t.TempDir(), "openapi.yaml")
	doc := `openapi: 3.0.3
info: {title: Ping, version: "1"}
paths:
  /ping:
    get:
      operationId: ping
      responses:
        "200":
          description: ok
          content:
            text/plain:
              schema: {type: string}
`
	if err := os.WriteFile(spec, []byte(doc), 0o644); err != nil {
		t.Fatalf("failed to write spec: %v", err)
	}
	if err := ValidateSpec(context.Background(), spec); err != nil {
		t.Fatalf("ValidateSpec failed: %v", err)
	}

	compiled, err := CompileDocument(context.Background(), spec, generator.BuildOptions{})
	if err != nil {
		t.Fatalf("CompileDocument failed: %v", err)
	}
	ops := compiled.Operations()
	if len(ops) != 1 || ops[0].FunctionName != "ping" {
		t.Fatalf("operations = %+v", ops)
	}
}
