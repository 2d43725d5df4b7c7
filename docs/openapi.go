// Package docs builds the Swagger document for the registered routes and
// serves it together with the embedded Swagger UI.
package docs

import (
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-openapi/spec"
)

const swaggerVersion = "2.0"

// Route describes one handler for the document. Request, Response and
// ErrorBody are sample values whose types become definitions.
type Route struct {
	Summary       string
	Tag           string
	Query         []*spec.Parameter
	Request       interface{}
	Response      interface{}
	ResponseArray bool
	// ErrorBody replaces the registry's error body for this route.
	ErrorBody interface{}
	// Status maps each documented status code to its description.
	Status map[int]string
}

// Registry collects route descriptions while handlers register themselves.
type Registry struct {
	routes    map[string]Route
	errorBody interface{}
}

// NewRegistry documents every status >= 400 with the schema of errorBody
// unless a route names its own.
func NewRegistry(errorBody interface{}) *Registry {
	return &Registry{routes: make(map[string]Route), errorBody: errorBody}
}

func (r *Registry) Describe(method, path string, route Route) {
	r.routes[method+" "+path] = route
}

// Build walks the routes gin actually registered. Routes without a
// description are still listed with a bare default response.
func (r *Registry) Build(title string, routes gin.RoutesInfo) *spec.Swagger {
	doc := &spec.Swagger{SwaggerProps: spec.SwaggerProps{
		Swagger:     swaggerVersion,
		Info:        &spec.Info{InfoProps: spec.InfoProps{Title: title, Version: "1.0.0"}},
		Consumes:    []string{"application/json"},
		Produces:    []string{"application/json"},
		Paths:       &spec.Paths{Paths: make(map[string]spec.PathItem)},
		Definitions: make(spec.Definitions),
	}}
	sorted := append(gin.RoutesInfo(nil), routes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Path != sorted[j].Path {
			return sorted[i].Path < sorted[j].Path
		}
		return sorted[i].Method < sorted[j].Method
	})

	for _, ri := range sorted {
		if strings.HasPrefix(ri.Path, "/swagger") || ri.Method == http.MethodHead {
			continue
		}
		path, params := swaggerPath(ri.Path)
		op := spec.NewOperation(operationID(ri.Method, ri.Path))
		for _, p := range params {
			op.AddParam(p)
		}
		route, ok := r.routes[ri.Method+" "+ri.Path]
		if !ok {
			op.WithDefaultResponse(spec.NewResponse().WithDescription("response"))
		} else {
			r.describe(doc, op, route)
		}
		item := doc.Paths.Paths[path]
		setOperation(&item, ri.Method, op)
		doc.Paths.Paths[path] = item
	}
	return doc
}

func (r *Registry) describe(doc *spec.Swagger, op *spec.Operation, route Route) {
	op.WithSummary(route.Summary)
	if route.Tag != "" {
		op.WithTags(route.Tag)
	}
	for _, q := range route.Query {
		op.AddParam(q)
	}
	if route.Request != nil {
		op.AddParam(spec.BodyParam("body", define(doc, route.Request, true)).AsRequired())
	}
	errorBody := route.ErrorBody
	if errorBody == nil {
		errorBody = r.errorBody
	}
	for status, desc := range route.Status {
		resp := spec.NewResponse().WithDescription(desc)
		switch {
		case status >= 200 && status < 300 && route.Response != nil:
			schema := define(doc, route.Response, false)
			if route.ResponseArray {
				schema = spec.ArrayProperty(schema)
			}
			resp.WithSchema(schema)
		case status >= 400 && errorBody != nil:
			resp.WithSchema(define(doc, errorBody, false))
		}
		op.RespondsWith(status, resp)
	}
}

func setOperation(item *spec.PathItem, method string, op *spec.Operation) {
	switch method {
	case http.MethodGet:
		item.Get = op
	case http.MethodPost:
		item.Post = op
	case http.MethodPut:
		item.Put = op
	case http.MethodPatch:
		item.Patch = op
	case http.MethodDelete:
		item.Delete = op
	case http.MethodOptions:
		item.Options = op
	}
}

// swaggerPath turns /artists/:id into /artists/{id}.
func swaggerPath(p string) (string, []*spec.Parameter) {
	parts := strings.Split(p, "/")
	var params []*spec.Parameter
	for i, part := range parts {
		if strings.HasPrefix(part, ":") {
			name := part[1:]
			parts[i] = "{" + name + "}"
			params = append(params, spec.PathParam(name).Typed("integer", "int64"))
		}
	}
	return strings.Join(parts, "/"), params
}

// operationID names GET /artists/:id getArtistsById and GET / getRoot.
func operationID(method, path string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, ":") {
			b.WriteString("By")
			part = part[1:]
		}
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	if b.Len() == len(method) {
		b.WriteString("Root")
	}
	return b.String()
}

// define adds the definition for v's type and returns a reference to it.
func define(doc *spec.Swagger, v interface{}, request bool) *spec.Schema {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if _, ok := doc.Definitions[t.Name()]; !ok {
		doc.Definitions[t.Name()] = *SchemaOf(t, request)
	}
	return spec.RefSchema("#/definitions/" + t.Name())
}

// SchemaOf derives an object schema from the json, validate, description and
// example struct tags. Embedded structs are flattened.
func SchemaOf(t reflect.Type, request bool) *spec.Schema {
	s := new(spec.Schema).Typed("object", "")
	if request {
		s.AdditionalProperties = &spec.SchemaOrBool{Allows: false}
	}
	addFields(s, t)
	sort.Strings(s.Required)
	return s
}

func addFields(s *spec.Schema, t reflect.Type) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			addFields(s, f.Type)
			continue
		}
		if !f.IsExported() {
			continue
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		prop := fieldSchema(f)
		for _, rule := range strings.Split(f.Tag.Get("validate"), ",") {
			key, value, _ := strings.Cut(rule, "=")
			switch key {
			case "required":
				s.AddRequired(name)
			case "min":
				if n, err := strconv.ParseInt(value, 10, 64); err == nil {
					prop.WithMinLength(n)
				}
			case "max":
				if n, err := strconv.ParseInt(value, 10, 64); err == nil {
					prop.WithMaxLength(n)
				}
			}
		}
		s.SetProperty(name, *prop)
	}
}

func fieldSchema(f reflect.StructField) *spec.Schema {
	prop := typeSchema(f.Type)
	if desc := f.Tag.Get("description"); desc != "" {
		prop.WithDescription(desc)
	}
	example := f.Tag.Get("example")
	if example == "" {
		return prop
	}
	switch {
	case prop.Type.Contains("integer"):
		if n, err := strconv.ParseInt(example, 10, 64); err == nil {
			prop.WithExample(n)
		}
	case prop.Type.Contains("number"):
		if n, err := strconv.ParseFloat(example, 64); err == nil {
			prop.WithExample(n)
		}
	case prop.Type.Contains("boolean"):
		if b, err := strconv.ParseBool(example); err == nil {
			prop.WithExample(b)
		}
	case prop.Type.Contains("string"):
		prop.WithExample(example)
	}
	return prop
}

func typeSchema(t reflect.Type) *spec.Schema {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int32:
		return spec.Int32Property()
	case reflect.Int, reflect.Int64:
		return spec.Int64Property()
	case reflect.Float32, reflect.Float64:
		return spec.Float64Property()
	case reflect.Bool:
		return spec.BoolProperty()
	case reflect.Slice, reflect.Array:
		return spec.ArrayProperty(typeSchema(t.Elem()))
	case reflect.Map:
		return spec.MapProperty(typeSchema(t.Elem()))
	default:
		return spec.StringProperty()
	}
}
