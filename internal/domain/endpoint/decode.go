package endpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report wire names so errors line up with the JSON document.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Decode maps a JSON document onto a freshly allocated T. Struct DTOs are
// then checked against their validate tags; a missing required field or a
// type mismatch yields a *DecodeError and a nil result, never a partially
// populated value.
func Decode[T any](data []byte) (*T, error) {
	target := fmt.Sprintf("%T", *new(T))
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		de := &DecodeError{Target: target, Cause: err}
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) {
			de.Field = te.Field
		}
		return nil, de
	}
	if isStruct(out) {
		if err := validate.Struct(out); err != nil {
			de := &DecodeError{Target: target, Cause: err}
			var ve validator.ValidationErrors
			if errors.As(err, &ve) && len(ve) > 0 {
				de.Field = wirePath(ve[0].Namespace())
			}
			return nil, de
		}
	}
	return out, nil
}

func isStruct(v any) bool {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

// wirePath drops the leading type name from a validator namespace such as
// "Realm.region.name".
func wirePath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
