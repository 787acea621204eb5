package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/blimu-dev/zod-gen/pkg/ir"
)

func TestSortStatusCodes(t *testing.T) {
	tests := []struct {
		input    []string
		expected []string
	}{
		{[]string{"500", "200", "404"}, []string{"200", "404", "500"}},
		{[]string{"default", "201", "200"}, []string{"200", "201"}},
		{[]string{"4XX", "2XX", "404", "200", "201", "500"}, []string{"200", "201", "2XX", "404", "4XX", "500"}},
		{[]string{"default"}, []string{}},
	}

	for _, test := range tests {
		result := SortStatusCodes(test.input)
		if diff := cmp.Diff(test.expected, result); diff != "" {
			t.Errorf("SortStatusCodes(%q) mismatch (-want +got):\n%s", test.input, diff)
		}
	}
}

func TestIsJSONLike(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"application/vnd.api+json", true},
		{"application/problem+json", true},
		{"text/plain", false},
		{"application/octet-stream", false},
		{"multipart/form-data", false},
	}

	for _, test := range tests {
		result := IsJSONLike(test.input)
		if result != test.expected {
			t.Errorf("IsJSONLike(%q) = %v, expected %v", test.input, result, test.expected)
		}
	}
}

func TestStrategy(t *testing.T) {
	tests := []struct {
		ct        string
		hasSchema bool
		mixed     bool
		expected  ir.ParsingStrategy
	}{
		{"application/json", true, false, ir.ParsingStrategy{IsJSONLike: true, UseValidation: true}},
		{"application/json", false, false, ir.ParsingStrategy{IsJSONLike: true}},
		{"text/csv", true, false, ir.ParsingStrategy{}},
		{"application/json", true, true, ir.ParsingStrategy{IsJSONLike: true, UseValidation: true, RequiresRuntimeContentTypeCheck: true}},
		{"image/png", true, true, ir.ParsingStrategy{RequiresRuntimeContentTypeCheck: true}},
	}

	for _, test := range tests {
		result := Strategy(test.ct, test.hasSchema, test.mixed)
		if result != test.expected {
			t.Errorf("Strategy(%q, %v, %v) = %+v, expected %+v", test.ct, test.hasSchema, test.mixed, result, test.expected)
		}
	}
}

const userPaths = `
  /users/{id}:
    get:
      operationId: getUser
      parameters:
        - {name: id, in: path, required: true, schema: {type: string}}
      responses:
        "404": {description: missing}
        "200": {description: ok, content: {application/json: {schema: {$ref: "#/components/schemas/User"}}}}
        default: {description: anything else}
`

func TestCompileOperationVoidAndDataVariants(t *testing.T) {
	op := compileOp(t, userPaths, "/users/{id}", "get")

	if op.ContentTypes.Response != nil {
		t.Error("a status without content must suppress the response map")
	}
	want := []ir.UnionVariant{
		{StatusCode: "200", ContentType: "application/json", DataRef: "User", TypeScript: "ApiResponse<200, string, User>"},
		{StatusCode: "404", TypeScript: "ApiVoidResponse<404>"},
	}
	if diff := cmp.Diff(want, op.Union.Variants); diff != "" {
		t.Errorf("variants mismatch (-want +got):\n%s", diff)
	}
	if op.Union.ErrorVariant != UnexpectedVariant {
		t.Errorf("error variant = %q", op.Union.ErrorVariant)
	}
	if !strings.HasSuffix(op.Union.TypeScript, "| "+UnexpectedVariant) || strings.Count(op.Union.TypeScript, UnexpectedVariant) != 1 {
		t.Errorf("union should close with a single error variant: %s", op.Union.TypeScript)
	}

	if len(op.Handlers) != 2 {
		t.Fatalf("expected 2 handlers, got %d", len(op.Handlers))
	}
	void := op.Handlers[1]
	if void.StatusCode != "404" || void.HasData {
		t.Errorf("second handler = %+v", void)
	}
	if void.Code != `return { status: 404, contentType: "", data: undefined, response } as GetUserResponse;` {
		t.Errorf("void handler = %q", void.Code)
	}
	data := op.Handlers[0]
	if !strings.Contains(data.Code, "const data = await readBody(response, contentType);") ||
		!strings.Contains(data.Code, "parse: () => parseBody(schemas, data, contentType, true, options.deserializers)") {
		t.Errorf("data handler = %q", data.Code)
	}
	if strings.Contains(data.Code, "unexpectedResponse") {
		t.Errorf("without a response map the handler must not reject content types: %q", data.Code)
	}
	if data.Condition != "response.status === 200" {
		t.Errorf("condition = %q", data.Condition)
	}
	if diff := cmp.Diff([]string{"User"}, op.Imports.Sorted()); diff != "" {
		t.Errorf("imports mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileOperationStatusOrder(t *testing.T) {
	paths := `
  /jobs:
    post:
      operationId: runJob
      responses:
        "500": {description: boom, content: {application/json: {schema: {$ref: "#/components/schemas/Error"}}}}
        "200": {description: ok, content: {application/json: {schema: {$ref: "#/components/schemas/User"}}}}
        "404": {description: missing, content: {application/json: {schema: {$ref: "#/components/schemas/Error"}}}}
`
	op := compileOp(t, paths, "/jobs", "post")
	var got []string
	for _, h := range op.Handlers {
		got = append(got, h.StatusCode)
	}
	if diff := cmp.Diff([]string{"200", "404", "500"}, got); diff != "" {
		t.Errorf("handler order mismatch (-want +got):\n%s", diff)
	}
	if op.ContentTypes.Response == nil {
		t.Fatal("every status has a schema, the response map should exist")
	}
	if diff := cmp.Diff([]string{"application/json"}, op.Deserializers.ContentTypes); diff != "" {
		t.Errorf("deserializer slots mismatch (-want +got):\n%s", diff)
	}
	if op.Deserializers.TypeScript != `{ "application/json"?: Deserializer }` {
		t.Errorf("deserializer shape = %q", op.Deserializers.TypeScript)
	}
}

const negotiatedPaths = `
  /users:
    post:
      operationId: createUser
      requestBody:
        required: true
        content:
          application/xml: {schema: {$ref: "#/components/schemas/User"}}
          application/json: {schema: {$ref: "#/components/schemas/User"}}
      responses:
        "400":
          description: bad
          content:
            application/problem+json: {schema: {$ref: "#/components/schemas/Error"}}
            application/json: {schema: {$ref: "#/components/schemas/Error"}}
        "201":
          description: created
          content:
            application/json: {schema: {$ref: "#/components/schemas/User"}}
            text/csv: {schema: {type: string}}
`

func TestCompileOperationContentNegotiation(t *testing.T) {
	op := compileOp(t, negotiatedPaths, "/users", "post")

	if op.RequestBody == nil || !op.RequestBody.Required {
		t.Fatalf("request body = %+v", op.RequestBody)
	}
	if op.ContentTypes.Request.Default != "application/xml" {
		t.Errorf("request default = %q, expected the first declared type", op.ContentTypes.Request.Default)
	}
	if diff := cmp.Diff([]string{"application/xml", "application/json"}, op.ContentTypes.Request.ContentTypes()); diff != "" {
		t.Errorf("request map mismatch (-want +got):\n%s", diff)
	}
	if op.RequestBody.TypeScript != "User" {
		t.Errorf("body type = %q", op.RequestBody.TypeScript)
	}

	m := op.ContentTypes.Response
	if m == nil {
		t.Fatal("expected a response map")
	}
	if m.Default != "application/json" || op.ContentTypes.DefaultResponseContentType != "application/json" {
		t.Errorf("response default = %q", m.Default)
	}
	if diff := cmp.Diff([]string{"application/json", "text/csv", "application/problem+json"}, op.Deserializers.ContentTypes); diff != "" {
		t.Errorf("deserializer slots mismatch (-want +got):\n%s", diff)
	}

	created := op.Responses[0]
	if created.StatusCode != "201" || !created.HasMixedContentTypes {
		t.Fatalf("first response = %+v", created)
	}
	jsonEntry, csvEntry := created.ContentTypes[0], created.ContentTypes[1]
	if jsonEntry.Strategy != (ir.ParsingStrategy{IsJSONLike: true, UseValidation: true, RequiresRuntimeContentTypeCheck: true}) {
		t.Errorf("json strategy = %+v", jsonEntry.Strategy)
	}
	if csvEntry.Strategy != (ir.ParsingStrategy{RequiresRuntimeContentTypeCheck: true}) {
		t.Errorf("csv strategy = %+v", csvEntry.Strategy)
	}
	if csvEntry.DataRef != "CreateUserResponse201Csv" {
		t.Errorf("inline csv schema named %q", csvEntry.DataRef)
	}
	bad := op.Responses[1]
	if bad.HasMixedContentTypes || bad.ContentTypes[0].Strategy.RequiresRuntimeContentTypeCheck {
		t.Errorf("400 response should not need a runtime check: %+v", bad)
	}

	if len(op.InlineSchemas) != 1 || op.InlineSchemas[0].Name != "CreateUserResponse201Csv" || op.InlineSchemas[0].Schema.Expression != "z.string()" {
		t.Errorf("inline schemas = %+v", op.InlineSchemas)
	}

	h := op.Handlers[0].Code
	for _, fragment := range []string{
		`const schemas = { "application/json": User, "text/csv": CreateUserResponse201Csv };`,
		"if (!(contentType in schemas)) {",
		"if (isJsonLike(contentType)) {",
		"parseBody(schemas, data, contentType, true, options.deserializers)",
		"parseBody(schemas, data, contentType, false, options.deserializers)",
	} {
		if !strings.Contains(h, fragment) {
			t.Errorf("201 handler is missing %q:\n%s", fragment, h)
		}
	}
	if op.Union.Variants[0].TypeScript != `ApiResponse<201, "application/json", User>` {
		t.Errorf("first variant = %q", op.Union.Variants[0].TypeScript)
	}
	if diff := cmp.Diff([]string{"Error", "User"}, op.Imports.Sorted()); diff != "" {
		t.Errorf("imports mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileOperationSchemaLessContent(t *testing.T) {
	paths := `
  /files:
    get:
      operationId: listFiles
      responses:
        "200":
          description: ok
          content:
            text/plain: {}
`
	op := compileOp(t, paths, "/files", "get")
	entry := op.Responses[0].ContentTypes[0]
	if entry.Schema != nil || entry.DataRef != UnknownData || entry.Strategy.UseValidation {
		t.Errorf("schema-less entry = %+v", entry)
	}
	if op.ContentTypes.Response != nil {
		t.Error("a status without any schema must suppress the response map")
	}
	if op.ContentTypes.DefaultResponseContentType != "text/plain" {
		t.Errorf("default response content type = %q", op.ContentTypes.DefaultResponseContentType)
	}
	if op.Union.Variants[0].TypeScript != "ApiResponse<200, string, unknown>" {
		t.Errorf("variant = %q", op.Union.Variants[0].TypeScript)
	}
}

func TestCompileOperationDefaultContentTypeFallback(t *testing.T) {
	paths := `
  /ping:
    get:
      operationId: ping
      responses:
        "204": {description: pong}
`
	op := compileOp(t, paths, "/ping", "get")
	if op.ContentTypes.DefaultResponseContentType != DefaultContentType {
		t.Errorf("default = %q", op.ContentTypes.DefaultResponseContentType)
	}
	if len(op.Deserializers.ContentTypes) != 0 {
		t.Errorf("deserializer slots = %v", op.Deserializers.ContentTypes)
	}
}

func TestCompileOperationMissingIdentity(t *testing.T) {
	paths := `
  /things:
    get:
      responses:
        "200": {description: ok, content: {application/json: {schema: {type: object}}}}
`
	_, err := tryCompileOp(t, paths, "/things", "get")
	if !errors.Is(err, ErrMissingOperationIdentity) {
		t.Fatalf("expected ErrMissingOperationIdentity, got %v", err)
	}
	var ce *Error
	if !errors.As(err, &ce) || ce.Operation != "GET /things" {
		t.Errorf("error should name the operation: %v", err)
	}

	refOnly := `
  /things:
    get:
      responses:
        "200": {description: ok, content: {application/json: {schema: {$ref: "#/components/schemas/User"}}}}
`
	op, err := tryCompileOp(t, refOnly, "/things", "get")
	if err != nil {
		t.Fatalf("referenced schemas need no operationId: %v", err)
	}
	if op.FunctionName != "getThings" || op.Union.Name != "GetThingsResponse" {
		t.Errorf("names = %q, %q", op.FunctionName, op.Union.Name)
	}
}

func TestCompileOperationRangeStatus(t *testing.T) {
	paths := `
  /reports:
    get:
      operationId: getReport
      responses:
        "2XX": {description: ok, content: {application/json: {schema: {$ref: "#/components/schemas/User"}}}}
        "200": {description: ok, content: {application/json: {schema: {$ref: "#/components/schemas/User"}}}}
`
	op := compileOp(t, paths, "/reports", "get")
	if op.Handlers[0].StatusCode != "200" || op.Handlers[1].StatusCode != "2XX" {
		t.Fatalf("handlers = %+v", op.Handlers)
	}
	if op.Handlers[1].Condition != "response.status >= 200 && response.status <= 299" {
		t.Errorf("range condition = %q", op.Handlers[1].Condition)
	}
	if !strings.Contains(op.Handlers[1].Code, "status: response.status,") {
		t.Errorf("range handler should echo the actual status: %q", op.Handlers[1].Code)
	}
	if op.Union.Variants[1].TypeScript != `ApiResponse<number, "application/json", User>` {
		t.Errorf("range variant = %q", op.Union.Variants[1].TypeScript)
	}
}

func TestCompileOperationNormalizesResponseContentTypes(t *testing.T) {
	paths := `
  /users/{id}:
    get:
      operationId: getUser
      parameters:
        - {name: id, in: path, required: true, schema: {type: string}}
      responses:
        "200":
          description: ok
          content:
            "application/json; charset=utf-8": {schema: {$ref: "#/components/schemas/User"}}
            "Application/JSON": {schema: {$ref: "#/components/schemas/User"}}
            "text/csv; header=present": {schema: {type: string}}
`
	op := compileOp(t, paths, "/users/{id}", "get")

	entries := op.Responses[0].ContentTypes
	got := make([]string, 0, len(entries))
	for _, ce := range entries {
		got = append(got, ce.ContentType)
	}
	if diff := cmp.Diff([]string{"application/json", "text/csv"}, got); diff != "" {
		t.Errorf("content types mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"application/json", "text/csv"}, op.Deserializers.ContentTypes); diff != "" {
		t.Errorf("deserializer slots mismatch (-want +got):\n%s", diff)
	}
	if op.Deserializers.TypeScript != `{ "application/json"?: Deserializer; "text/csv"?: Deserializer }` {
		t.Errorf("deserializer type = %q", op.Deserializers.TypeScript)
	}
	if !strings.Contains(op.Handlers[0].Code, `const schemas = { "application/json": User, "text/csv": GetUserResponse200Csv };`) {
		t.Errorf("handler should key schemas by bare media type:\n%s", op.Handlers[0].Code)
	}
	if op.ContentTypes.DefaultResponseContentType != "application/json" {
		t.Errorf("default response content type = %q", op.ContentTypes.DefaultResponseContentType)
	}
}

func TestCompileOperationAvoidsComponentNames(t *testing.T) {
	doc := loadDoc(t, `
openapi: 3.0.3
info: {title: fixture, version: "1"}
paths:
  /pets:
    get:
      operationId: listPets
      parameters:
        - {name: limit, in: query, schema: {type: integer}}
      responses:
        "200":
          description: ok
          content:
            application/json: {schema: {$ref: "#/components/schemas/ListPetsResponse"}}
        "400":
          description: bad
          content:
            application/json: {schema: {type: object, properties: {code: {type: string}}}}
components:
  schemas:
    ListPetsResponse: {type: array, items: {type: string}}
    ListPetsParams: {type: object}
    ListPetsResponse400: {type: string}
`)
	item := doc.T.Paths.Value("/pets")
	op, err := New(doc, Options{}).CompileOperation(OperationInput{
		OperationID: "listPets",
		Method:      "get",
		Path:        "/pets",
		Operation:   item.Get,
		PathItem:    item,
	})
	if err != nil {
		t.Fatalf("CompileOperation failed: %v", err)
	}

	if op.Union.Name != "ListPetsResponse2" {
		t.Errorf("union name = %q", op.Union.Name)
	}
	if op.ParamsName != "ListPetsParams2" {
		t.Errorf("params name = %q", op.ParamsName)
	}
	if op.Deserializers.Name != "ListPetsDeserializers" {
		t.Errorf("deserializers name = %q", op.Deserializers.Name)
	}
	if len(op.InlineSchemas) != 1 || op.InlineSchemas[0].Name != "ListPetsResponse4002" {
		t.Errorf("inline schemas = %+v", op.InlineSchemas)
	}

	declared := map[string]bool{op.Union.Name: true, op.ParamsName: true, op.Deserializers.Name: true}
	for _, ns := range op.InlineSchemas {
		declared[ns.Name] = true
	}
	for _, imported := range op.Imports.Sorted() {
		if declared[imported] {
			t.Errorf("%s is both imported and declared", imported)
		}
	}
}

func TestCompileOperationRequestBodyWithoutContent(t *testing.T) {
	paths := `
  /uploads:
    post:
      operationId: upload
      requestBody: {description: raw upload, content: {}}
      responses:
        "204": {description: stored}
`
	op := compileOp(t, paths, "/uploads", "post")
	if op.RequestBody == nil || op.RequestBody.TypeScript != "unknown" {
		t.Fatalf("request body = %+v", op.RequestBody)
	}
	if op.ContentTypes.Request.Default != DefaultContentType {
		t.Errorf("request default = %q, expected %q", op.ContentTypes.Request.Default, DefaultContentType)
	}
}
