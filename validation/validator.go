// Package validation decodes request bodies against the request schemas in
// package dto and reports problems per field.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	MsgRequired      = "Missing data for required field."
	MsgUnknownField  = "Unknown field."
	MsgInvalidInput  = "Invalid input type."
	MsgNotInteger    = "Not a valid integer."
	MsgNotString     = "Not a valid string."
	MsgInvalidValue  = "Invalid value."
	MsgNotNull       = "Field may not be null."
	MsgIDImmutable   = "Identifier cannot be changed."
	SchemaErrorField = "_schema"
)

// ParseError reports a body that is not JSON at all.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// FieldErrors maps a field name to the reasons it was rejected.
type FieldErrors map[string][]string

func (e FieldErrors) Add(field, reason string) {
	e[field] = append(e[field], reason)
}

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e[f], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonName)
	})
	return validate
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// Decode parses body into a new S. It returns a *ParseError for malformed
// JSON and FieldErrors when the document does not satisfy the schema.
func Decode[S any](body []byte) (*S, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, FieldErrors{SchemaErrorField: {MsgInvalidInput}}
		}
		return nil, &ParseError{Err: err}
	}
	if raw == nil {
		return nil, FieldErrors{SchemaErrorField: {MsgInvalidInput}}
	}

	schema := schemaOf(reflect.TypeOf((*S)(nil)).Elem())
	errs := FieldErrors{}
	for key, value := range raw {
		typ, ok := schema.fields[key]
		if !ok {
			errs.Add(key, MsgUnknownField)
			continue
		}
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			errs.Add(key, MsgNotNull)
			continue
		}
		if err := json.Unmarshal(value, reflect.New(typ).Interface()); err != nil {
			errs.Add(key, typeMessage(typ))
		}
	}
	if len(errs) > 0 {
		// Type errors would make the struct decode below fail, so report now
		// together with anything required that is also missing.
		for name := range schema.required {
			if _, present := raw[name]; !present {
				errs.Add(name, MsgRequired)
			}
		}
		return nil, errs
	}

	out := new(S)
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(out); err != nil {
		return nil, &ParseError{Err: err}
	}
	if err := Struct(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Struct runs the validate tags of s and converts failures to FieldErrors.
func Struct(s interface{}) error {
	err := engine().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	errs := FieldErrors{}
	for _, fe := range verrs {
		errs.Add(fe.Field(), tagMessage(fe))
	}
	return errs
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "min":
		return fmt.Sprintf("Shorter than minimum length %s.", fe.Param())
	case "max":
		return fmt.Sprintf("Longer than maximum length %s.", fe.Param())
	default:
		return MsgInvalidValue
	}
}

func typeMessage(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return MsgNotInteger
	case reflect.String:
		return MsgNotString
	default:
		return MsgInvalidValue
	}
}

type schemaInfo struct {
	fields   map[string]reflect.Type
	required map[string]bool
}

var schemaCache sync.Map // reflect.Type -> *schemaInfo

// schemaOf lists the JSON names a schema accepts, including the fields of
// embedded structs, with the Go type each one decodes into.
func schemaOf(t reflect.Type) *schemaInfo {
	if cached, ok := schemaCache.Load(t); ok {
		return cached.(*schemaInfo)
	}
	info := &schemaInfo{fields: map[string]reflect.Type{}, required: map[string]bool{}}
	collectFields(t, info)
	actual, _ := schemaCache.LoadOrStore(t, info)
	return actual.(*schemaInfo)
}

func collectFields(t reflect.Type, info *schemaInfo) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			collectFields(f.Type, info)
			continue
		}
		if !f.IsExported() {
			continue
		}
		name := jsonName(f)
		if name == "" {
			continue
		}
		info.fields[name] = f.Type
		for _, rule := range strings.Split(f.Tag.Get("validate"), ",") {
			if rule == "required" {
				info.required[name] = true
			}
		}
	}
}

// Fields returns the accepted JSON names of schema S, sorted.
func Fields[S any]() []string {
	schema := schemaOf(reflect.TypeOf((*S)(nil)).Elem())
	names := make([]string, 0, len(schema.fields))
	for name := range schema.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
