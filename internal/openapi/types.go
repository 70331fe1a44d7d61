package openapi

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// TypeMapping is an OpenAPI type/format pair.
type TypeMapping struct {
	Type   string // OpenAPI type: string, integer, number, boolean, object, array
	Format string // OpenAPI format: int32, int64, date-time, uuid, etc.
}

// fieldTypes maps the shorthand used in the component definitions below to
// OpenAPI types.
var fieldTypes = map[string]TypeMapping{
	"string":    {"string", ""},
	"uuid":      {"string", "uuid"},
	"date-time": {"string", "date-time"},
	"int":       {"integer", "int32"},
	"int64":     {"integer", "int64"},
	"bool":      {"boolean", ""},
	"object":    {"object", ""},
}

// MapFieldType resolves a shorthand field type (case-insensitive). Unknown
// types map to string.
func MapFieldType(t string) TypeMapping {
	if m, ok := fieldTypes[strings.ToLower(strings.TrimSpace(t))]; ok {
		return m
	}
	return TypeMapping{Type: "string"}
}

// field describes one JSON property of a component schema. Type is either a
// shorthand from fieldTypes, "ref:Name" for a component reference, or
// "array:Name" for an array of components.
type field struct {
	Name     string
	Type     string
	Enum     []any
	Required bool
	Desc     string
}

func objectSchema(fields ...field) *openapi3.SchemaRef {
	s := &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: openapi3.Schemas{},
	}
	for _, f := range fields {
		s.Properties[f.Name] = fieldSchema(f)
		if f.Required {
			s.Required = append(s.Required, f.Name)
		}
	}
	return &openapi3.SchemaRef{Value: s}
}

func fieldSchema(f field) *openapi3.SchemaRef {
	switch {
	case strings.HasPrefix(f.Type, "ref:"):
		return openapi3.NewSchemaRef(componentRef(strings.TrimPrefix(f.Type, "ref:")), nil)
	case strings.HasPrefix(f.Type, "array:"):
		return arrayOf(strings.TrimPrefix(f.Type, "array:"))
	}
	m := MapFieldType(f.Type)
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:        &openapi3.Types{m.Type},
		Format:      m.Format,
		Enum:        f.Enum,
		Description: f.Desc,
	}}
}

func arrayOf(component string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:  &openapi3.Types{"array"},
		Items: openapi3.NewSchemaRef(componentRef(component), nil),
	}}
}

func componentRef(name string) string {
	return "#/components/schemas/" + name
}

func enumOf[T ~string](values ...T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
