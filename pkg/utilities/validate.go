package utilities

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError is one itemized validation failure; Loc is the path to the offending input.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

type ValidationErrorResponse struct {
	Detail []FieldError `json:"detail"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their json name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeJSON decodes the request body into dst. A malformed body or a value of the
// wrong JSON type yields field errors instead of a Go error.
func DecodeJSON(r *http.Request, dst any) []FieldError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return []FieldError{{
				Loc:  []string{"body", typeErr.Field},
				Msg:  fmt.Sprintf("input should be a valid %s", typeErr.Type.Kind()),
				Type: "type_error",
			}}
		}
		return []FieldError{{Loc: []string{"body"}, Msg: "invalid JSON body", Type: "json_invalid"}}
	}
	return nil
}

// ValidateStruct checks s against its `validate` tags and returns nil when it passes.
func ValidateStruct(s any) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error"}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Loc:  []string{"body", fe.Field()},
			Msg:  fieldMessage(fe),
			Type: fe.Tag(),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "email":
		return "value is not a valid email address"
	case "min":
		return fmt.Sprintf("should have at least %s characters", fe.Param())
	case "latitude":
		return "input should be a valid latitude between -90 and 90"
	case "longitude":
		return "input should be a valid longitude between -180 and 180"
	case "iso3166_1_alpha2":
		return "invalid country alpha2 code"
	default:
		return "invalid value"
	}
}

// PathID parses the integer path value name. On failure it writes a 422 and returns false.
func PathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		WriteValidationError(w, []FieldError{{
			Loc:  []string{"path", name},
			Msg:  "input should be a valid integer",
			Type: "int_parsing",
		}})
		return 0, false
	}
	return id, true
}
