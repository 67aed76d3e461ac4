package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/sells-group/house-rocket/internal/pipeline"
)

// query is the validated form of the dashboard query string.
type query struct {
	Filter pipeline.Filter
	Zoom   int `json:"zoom" validate:"min=0,max=20"`
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// splitValues accepts both repeated keys and comma separated values.
func splitValues(vals url.Values, key string) []string {
	var out []string
	for _, raw := range vals[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (s *Server) parseQuery(r *http.Request) (query, error) {
	vals := r.URL.Query()
	q := query{
		Filter: pipeline.Filter{
			Conditions: splitValues(vals, "condition"),
			Zipcodes:   splitValues(vals, "zipcode"),
		},
		Zoom: DefaultZoom,
	}
	if z := vals.Get("zoom"); z != "" {
		n, err := strconv.Atoi(z)
		if err != nil {
			return q, validationError{fields: []FieldError{{Field: "zoom", Message: "zoom must be an integer"}}}
		}
		q.Zoom = n
	}
	return q, s.check(q)
}

// check runs struct validation and converts failures to a validationError.
func (s *Server) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := validationError{}
	for _, fe := range verrs {
		out.fields = append(out.fields, FieldError{Field: fieldName(fe), Message: formatValidationError(fe)})
	}
	return out
}

// fieldName drops the struct prefix from the namespace, e.g.
// "query.Filter.zipcodes[0]" becomes "zipcodes[0]".
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.LastIndex(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func formatValidationError(fe validator.FieldError) string {
	field := fieldName(fe)
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must be numeric", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

type validationError struct {
	fields []FieldError
}

func (e validationError) Error() string {
	msgs := make([]string, 0, len(e.fields))
	for _, f := range e.fields {
		msgs = append(msgs, f.Message)
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string, fields []FieldError) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg, Fields: fields})
}

// badRequest answers 400, listing field errors when err carries them.
func badRequest(w http.ResponseWriter, r *http.Request, err error) {
	var verr validationError
	if errors.As(err, &verr) {
		writeError(w, r, http.StatusBadRequest, "invalid request", verr.fields)
		return
	}
	writeError(w, r, http.StatusBadRequest, err.Error(), nil)
}
