package openapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/getkin/kin-openapi/openapi3"
)

// Document is a loaded OpenAPI document together with its declaration-order index
type Document struct {
	T *openapi3.T
	// Order recovers mapping key order, which openapi3 maps do not keep
	Order *Order
	// Location is the file path or URL the document was read from
	Location string
}

// NewDocument wraps a programmatically built document; key order falls back to sorted names
func NewDocument(t *openapi3.T) *Document {
	return &Document{T: t, Order: EmptyOrder()}
}

// Resolver returns a reference resolver over the document
func (d *Document) Resolver() *Resolver {
	return NewResolver(d.T)
}

// Counts reports how many operations and component schemas the document declares
func (d *Document) Counts() (operations, schemas int) {
	if d.T.Paths != nil {
		for _, item := range d.T.Paths.Map() {
			operations += len(item.Operations())
		}
	}
	if d.T.Components != nil {
		schemas = len(d.T.Components.Schemas)
	}
	return operations, schemas
}

// newLoader returns the loader configuration shared by every entry point
func newLoader() *openapi3.Loader {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	return loader
}

// LoadDocument loads an OpenAPI document from a local file path or an HTTP(S) URL
func LoadDocument(ctx context.Context, input string) (*Document, error) {
	data, location, err := readSource(ctx, input)
	if err != nil {
		return nil, err
	}
	return LoadDocumentFromData(ctx, data, location)
}

// LoadDocumentFromData parses a document held in memory. location, when set, anchors relative external refs.
func LoadDocumentFromData(ctx context.Context, data []byte, location *url.URL) (*Document, error) {
	loader := newLoader()
	loader.Context = ctx
	var (
		doc *openapi3.T
		err error
	)
	if location != nil {
		doc, err = loader.LoadFromDataWithPath(data, location)
	} else {
		doc, err = loader.LoadFromData(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	order, err := BuildOrder(data)
	if err != nil {
		return nil, fmt.Errorf("failed to index OpenAPI document: %w", err)
	}
	out := &Document{T: doc, Order: order}
	if location != nil {
		out.Location = location.String()
	}
	return out, nil
}

// ValidateDocument loads a document and validates it against the OpenAPI object model
func ValidateDocument(ctx context.Context, input string) error {
	doc, err := LoadDocument(ctx, input)
	if err != nil {
		return err
	}
	return doc.T.Validate(ctx)
}

// readSource reads input as a URL when it looks like http(s), otherwise from the filesystem
func readSource(ctx context.Context, input string) ([]byte, *url.URL, error) {
	if u, err := url.Parse(input); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch %s: %w", input, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, nil, fmt.Errorf("failed to fetch %s: unexpected status %d", input, resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, nil, err
		}
		return data, u, nil
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, nil, err
	}
	abs, err := filepath.Abs(input)
	if err != nil {
		abs = input
	}
	return data, &url.URL{Path: filepath.ToSlash(abs)}, nil
}
