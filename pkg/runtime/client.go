package runtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	json "github.com/goccy/go-json"

	"github.com/blimu-dev/zod-gen/pkg/compiler"
	"github.com/blimu-dev/zod-gen/pkg/ir"
)

// Deserializer turns a raw body into a value before validation
type Deserializer func(body []byte, contentType string) (any, error)

// Client sends compiled operations
type Client struct {
	HTTP    *http.Client
	BaseURL string
	// Deserializers are keyed by media type and apply to every operation
	Deserializers map[string]Deserializer
	Logger        *slog.Logger
}

// Request carries the arguments of one call
type Request struct {
	Path    map[string]string
	Query   url.Values
	Headers http.Header
	// Body is sent as JSON for JSON-like content types; []byte, string and io.Reader are sent as is
	Body any
	// ContentType overrides the operation's default request content type
	ContentType string
	// Deserializers override the client's for this call
	Deserializers map[string]Deserializer
}

// Result is a received response matched to a branch of the operation's union
type Result struct {
	Status      int
	ContentType string
	Header      http.Header
	Body        []byte
	// Data is the read body: decoded JSON for JSON-like content, text for text/*, bytes otherwise
	Data any
	// Unexpected is set when the status or content type is not part of the union
	Unexpected bool

	op            *Operation
	entry         *ir.ResponseEntry
	readErr       error
	deserializers map[string]Deserializer
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

// Do sends req and matches the response against the operation's branches.
// Only transport failures are returned as errors.
func (c *Client) Do(ctx context.Context, op *Operation, req Request) (*Result, error) {
	httpReq, err := c.newRequest(ctx, op, req)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindFetch, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindFetch, Status: resp.StatusCode, Err: err}
	}

	res := &Result{
		Status:        resp.StatusCode,
		Header:        resp.Header,
		Body:          body,
		op:            op,
		deserializers: c.Deserializers,
	}
	if req.Deserializers != nil {
		res.deserializers = req.Deserializers
	}
	res.ContentType = resp.Header.Get("Content-Type")
	if res.ContentType == "" && len(body) > 0 {
		res.ContentType = mimetype.Detect(body).String()
	}
	res.ContentType = compiler.MediaType(res.ContentType)

	res.entry = op.match(resp.StatusCode)
	switch {
	case res.entry == nil:
		res.Unexpected = true
	case !res.entry.HasContent:
		res.ContentType = ""
	case op.ContentTypes.Response != nil && !declares(res.entry, res.ContentType):
		res.Unexpected = true
	default:
		res.Data, res.readErr = readBody(body, res.ContentType)
	}
	c.logger().Debug("response received",
		"operation", op.FunctionName,
		"status", res.Status,
		"contentType", res.ContentType,
		"unexpected", res.Unexpected,
	)
	return res, nil
}

func (c *Client) newRequest(ctx context.Context, op *Operation, req Request) (*http.Request, error) {
	path := op.Path
	for name, value := range req.Path {
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(value))
	}
	target := strings.TrimSuffix(c.BaseURL, "/") + path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	contentType := req.ContentType
	if req.Body != nil {
		if contentType == "" && op.ContentTypes.Request != nil {
			contentType = op.ContentTypes.Request.Default
		}
		if contentType == "" {
			contentType = compiler.DefaultContentType
		}
		r, err := encodeBody(req.Body, contentType)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op.FunctionName, err)
		}
		body = r
	}

	httpReq, err := http.NewRequestWithContext(ctx, op.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build request: %w", op.FunctionName, err)
	}
	for name, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if httpReq.Header.Get("Accept") == "" && op.ContentTypes.DefaultResponseContentType != "" {
		httpReq.Header.Set("Accept", op.ContentTypes.DefaultResponseContentType)
	}
	return httpReq, nil
}

func encodeBody(v any, contentType string) (io.Reader, error) {
	switch b := v.(type) {
	case io.Reader:
		return b, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	}
	if !compiler.IsJSONLike(contentType) {
		return nil, fmt.Errorf("cannot encode %T as %s", v, contentType)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return bytes.NewReader(data), nil
}

// readBody decodes JSON-like bodies and keeps text as a string
func readBody(body []byte, contentType string) (any, error) {
	switch {
	case compiler.IsJSONLike(contentType):
		if len(bytes.TrimSpace(body)) == 0 {
			return nil, nil
		}
		var v any
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, err
		}
		return v, nil
	case strings.HasPrefix(contentType, "text/"):
		return string(body), nil
	}
	return body, nil
}

// Void reports whether the matched branch declares no content
func (r *Result) Void() bool {
	return r.entry != nil && !r.entry.HasContent
}

// Parse applies the caller's deserializer, then the schema of the returned
// content type. A failed deserializer skips validation.
func (r *Result) Parse() (any, error) {
	if r.Unexpected {
		return nil, r.fail(KindUnexpectedResponse, nil)
	}
	if r.Void() {
		return nil, nil
	}

	data := r.Data
	if d, ok := r.deserializers[r.ContentType]; ok && d != nil {
		v, err := d(r.Body, r.ContentType)
		if err != nil {
			return nil, r.fail(KindDeserialization, err)
		}
		data = v
	} else if r.readErr != nil {
		return nil, r.fail(KindParse, r.readErr)
	}

	if !shouldValidate(r.entry, r.ContentType) {
		return data, nil
	}
	v, ok := r.op.validators[validatorKey(r.entry.StatusCode, r.ContentType)]
	if !ok {
		return nil, r.fail(KindMissingSchema, nil)
	}
	if err := v.Validate(data); err != nil {
		return nil, r.fail(KindParse, err)
	}
	return data, nil
}

func (r *Result) fail(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Status: r.Status, ContentType: r.ContentType, Err: err}
}
