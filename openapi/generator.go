package openapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gaborage/go-params/params"
	"github.com/gaborage/go-params/server"
	"github.com/gaborage/go-params/source"
	"github.com/gaborage/go-params/types"
)

// Version is the OpenAPI version of generated documents.
const Version = "3.1.0"

// Media types of request bodies.
const (
	MediaJSON      = "application/json"
	MediaForm      = "application/x-www-form-urlencoded"
	MediaMultipart = "multipart/form-data"
)

// Generator creates OpenAPI documents from route descriptors.
type Generator struct {
	title       string
	version     string
	description string
}

// Document is an OpenAPI 3.1 document.
type Document struct {
	OpenAPI    string              `yaml:"openapi" json:"openapi"`
	Info       Info                `yaml:"info" json:"info"`
	Paths      map[string]PathItem `yaml:"paths" json:"paths"`
	Components Components          `yaml:"components" json:"components"`
}

// Info is the info section of a document.
type Info struct {
	Title       string `yaml:"title" json:"title"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// PathItem holds the operations of one path keyed by lowercase method.
type PathItem map[string]*Operation

// Operation describes a single route.
type Operation struct {
	OperationID string              `yaml:"operationId" json:"operationId"`
	Summary     string              `yaml:"summary,omitempty" json:"summary,omitempty"`
	Description string              `yaml:"description,omitempty" json:"description,omitempty"`
	Tags        []string            `yaml:"tags,omitempty" json:"tags,omitempty"`
	Deprecated  bool                `yaml:"deprecated,omitempty" json:"deprecated,omitempty"`
	Parameters  []Parameter         `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	RequestBody *RequestBody        `yaml:"requestBody,omitempty" json:"requestBody,omitempty"`
	Responses   map[string]Response `yaml:"responses" json:"responses"`
}

// Parameter is a path, query or header parameter.
type Parameter struct {
	Name        string `yaml:"name" json:"name"`
	In          string `yaml:"in" json:"in"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Required    bool   `yaml:"required,omitempty" json:"required,omitempty"`
	Deprecated  bool   `yaml:"deprecated,omitempty" json:"deprecated,omitempty"`
	Schema      Schema `yaml:"schema" json:"schema"`
}

// RequestBody lists the accepted body media types.
type RequestBody struct {
	Required bool                 `yaml:"required,omitempty" json:"required,omitempty"`
	Content  map[string]MediaType `yaml:"content" json:"content"`
}

// MediaType is the schema of one body media type.
type MediaType struct {
	Schema   Schema              `yaml:"schema" json:"schema"`
	Encoding map[string]Encoding `yaml:"encoding,omitempty" json:"encoding,omitempty"`
}

// Encoding restricts the content type of a multipart part.
type Encoding struct {
	ContentType string `yaml:"contentType" json:"contentType"`
}

// Response is a single response description.
type Response struct {
	Description string               `yaml:"description" json:"description"`
	Content     map[string]MediaType `yaml:"content,omitempty" json:"content,omitempty"`
}

// Components holds the shared schemas.
type Components struct {
	Schemas map[string]Schema `yaml:"schemas" json:"schemas"`
}

// New creates a generator for a document with the given info section.
func New(title, version, description string) *Generator {
	return &Generator{title: title, version: version, description: description}
}

// Document builds the document for routes. Routes sharing a path are
// grouped under one path item.
func (g *Generator) Document(routes []server.RouteDescriptor) (*Document, error) {
	doc := &Document{
		OpenAPI:    Version,
		Info:       Info{Title: g.title, Version: g.version, Description: g.description},
		Paths:      make(map[string]PathItem),
		Components: Components{Schemas: standardSchemas()},
	}

	for i := range routes {
		op, err := operation(&routes[i])
		if err != nil {
			return nil, err
		}
		path := openAPIPath(routes[i].Path)
		if doc.Paths[path] == nil {
			doc.Paths[path] = make(PathItem)
		}
		doc.Paths[path][strings.ToLower(routes[i].Method)] = op
	}
	return doc, nil
}

// Generate renders the document for routes as YAML.
func (g *Generator) Generate(routes []server.RouteDescriptor) ([]byte, error) {
	doc, err := g.Document(routes)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("openapi: failed to encode YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("openapi: failed to close YAML encoder: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateJSON renders the document for routes as indented JSON.
func (g *Generator) GenerateJSON(routes []server.RouteDescriptor) ([]byte, error) {
	doc, err := g.Document(routes)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "  ")
}

func operation(route *server.RouteDescriptor) (*Operation, error) {
	op := &Operation{
		OperationID: operationID(route),
		Summary:     route.Summary,
		Description: route.Description,
		Tags:        route.Tags,
		Deprecated:  route.Deprecated,
		Responses:   standardResponses(route.Method),
	}
	if op.Summary == "" {
		op.Summary = route.Method + " " + route.Path
	}

	body := newBodyBuilder(hasFiles(route.Params))
	for _, p := range route.Params {
		schema, err := ParamSchema(p)
		if err != nil {
			return nil, err
		}
		kinds := p.Source().Kinds()
		// with several sources no single one is mandatory
		required := p.Required() && len(kinds) == 1

		for _, kind := range kinds {
			if in, ok := kind.In(); ok {
				op.Parameters = append(op.Parameters, Parameter{
					Name:        p.Key(),
					In:          in,
					Description: p.Description(),
					Required:    required || kind == source.KindPath,
					Deprecated:  p.IsDeprecated(),
					Schema:      schema,
				})
				continue
			}
			body.add(kind, p, schema, required)
		}
	}
	op.RequestBody = body.build()
	return op, nil
}

type bodyBuilder struct {
	multipart bool
	content   map[string]Schema
	encoding  map[string]Encoding
	required  bool
}

func newBodyBuilder(multipart bool) *bodyBuilder {
	return &bodyBuilder{multipart: multipart, content: make(map[string]Schema)}
}

func (b *bodyBuilder) add(kind source.Kind, p params.Param, schema Schema, required bool) {
	var media string
	switch kind {
	case source.KindJSON:
		media = MediaJSON
	case source.KindForm:
		media = MediaForm
		if b.multipart {
			media = MediaMultipart
		}
	case source.KindFile:
		media = MediaMultipart
		if rules, ok := source.FileRules(p.Source()); ok && len(rules.ContentTypes) > 0 {
			if b.encoding == nil {
				b.encoding = make(map[string]Encoding)
			}
			b.encoding[p.Key()] = Encoding{ContentType: strings.Join(rules.ContentTypes, ", ")}
		}
	default:
		return
	}

	obj, ok := b.content[media]
	if !ok {
		obj = Schema{"type": "object", "properties": map[string]any{}}
		b.content[media] = obj
	}
	obj["properties"].(map[string]any)[p.Key()] = schema
	if required {
		req, _ := obj["required"].([]string)
		obj["required"] = append(req, p.Key())
		b.required = true
	}
}

func (b *bodyBuilder) build() *RequestBody {
	if len(b.content) == 0 {
		return nil
	}
	rb := &RequestBody{Required: b.required, Content: make(map[string]MediaType, len(b.content))}
	for media, schema := range b.content {
		mt := MediaType{Schema: schema}
		if media == MediaMultipart {
			mt.Encoding = b.encoding
		}
		rb.Content[media] = mt
	}
	return rb
}

func hasFiles(declared []params.Param) bool {
	return slices.ContainsFunc(declared, func(p params.Param) bool {
		return slices.Contains(p.Source().Kinds(), source.KindFile) || bearsFile(p.Type())
	})
}

func bearsFile(t types.Descriptor) bool {
	switch t.Kind() {
	case types.KindFile:
		return true
	case types.KindOptional:
		return bearsFile(t.Inner())
	case types.KindList:
		return bearsFile(t.Elem())
	}
	return false
}

// openAPIPath turns Echo route parameters into OpenAPI templates,
// e.g. "/orders/:id" -> "/orders/{id}".
func openAPIPath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") {
			segments[i] = "{" + seg[1:] + "}"
		}
	}
	return strings.Join(segments, "/")
}

func operationID(route *server.RouteDescriptor) string {
	if route.HandlerName != "" && !strings.HasPrefix(route.HandlerName, "func") {
		return route.HandlerName
	}
	clean := strings.NewReplacer("/", "_", ":", "", "{", "", "}", "").Replace(route.Path)
	return strings.ToLower(route.Method) + clean
}

func standardResponses(method string) map[string]Response {
	success := "Successful response"
	if method == "POST" {
		success = "Resource created successfully"
	}
	return map[string]Response{
		"200": {
			Description: success,
			Content:     map[string]MediaType{MediaJSON: {Schema: Schema{"$ref": "#/components/schemas/SuccessResponse"}}},
		},
		"400": {
			Description: "Parameter validation failed",
			Content:     map[string]MediaType{MediaJSON: {Schema: Schema{"$ref": "#/components/schemas/ErrorResponse"}}},
		},
	}
}

func standardSchemas() map[string]Schema {
	meta := Schema{
		"type": "object",
		"properties": map[string]any{
			"timestamp": Schema{"type": "string", "format": "date-time"},
			"traceId":   Schema{"type": "string"},
		},
	}
	return map[string]Schema{
		"SuccessResponse": {
			"type": "object",
			"properties": map[string]any{
				"data": Schema{"description": "Response data"},
				"meta": meta,
			},
		},
		"ErrorResponse": {
			"type":     "object",
			"required": []string{"error"},
			"properties": map[string]any{
				"error": Schema{
					"type":     "object",
					"required": []string{"code", "message"},
					"properties": map[string]any{
						"code": Schema{"type": "string", "enum": []string{
							server.CodeMissingInput,
							server.CodeInvalidType,
							server.CodeValidationFailed,
							server.CodeBodyNotParseable,
							server.CodeCustomValidation,
							server.CodeInternalError,
						}},
						"message": Schema{"type": "string"},
						"details": Schema{"type": "object", "additionalProperties": true},
					},
				},
				"meta": meta,
			},
		},
	}
}
