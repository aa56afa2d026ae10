package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate names fields by their koanf key so a message points at the YAML
// path or APP_ variable to fix.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}

		return name
	})

	return v
}()

// tagMessages renders a failed rule. %[1]s is the key, %[2]s the rule's parameter.
var tagMessages = map[string]string{
	"required":    "%[1]s is required",
	"required_if": "%[1]s is required when %[2]s",
	"min":         "%[1]s must be at least %[2]s",
	"max":         "%[1]s must be at most %[2]s",
	"oneof":       "%[1]s must be one of: %[2]s",
	"url":         "%[1]s must be a valid URL",
	"excludesall": "%[1]s must not contain any of %[2]q",
	"gtefield":    "%[1]s must not be less than %[2]s",
	"ltefield":    "%[1]s must not exceed %[2]s",
}

// Validate reports every invalid setting at once. quotebook refuses to
// start on error.
func (c *Config) Validate() error {
	err := validate.Struct(c)

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	lines := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		lines = append(lines, fieldMessage(fe))
	}

	return fmt.Errorf("config validation failed:\n  %s", strings.Join(lines, "\n  "))
}

func fieldMessage(fe validator.FieldError) string {
	key := keyPath(fe.Namespace())

	msg, ok := tagMessages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s failed validation: %s", key, fe.Tag())
	}

	param := fe.Param()
	if strings.HasSuffix(fe.Tag(), "field") {
		param = siblingKey(key, fe.Param())
	}

	return fmt.Sprintf(msg, key, param)
}

// keyPath drops the root struct name: "Config.server.port" becomes "server.port".
func keyPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}

	return rest
}

// siblingKey resolves the koanf key of the Go field a cross-field rule
// compares against, e.g. InitialInterval next to client.retry.max_interval.
func siblingKey(key, goField string) string {
	parent, _, _ := cutLast(key, ".")

	for _, t := range []reflect.Type{
		reflect.TypeFor[RetryConfig](),
		reflect.TypeFor[TransportConfig](),
	} {
		if f, ok := t.FieldByName(goField); ok {
			name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
			if parent == "" {
				return name
			}

			return parent + "." + name
		}
	}

	return goField
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return "", s, false
	}

	return s[:i], s[i+len(sep):], true
}
