package dto

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

var (
	// ErrBinding wraps a request body that is not valid JSON for the target.
	ErrBinding = errors.New("binding failed")

	// ErrValidation wraps a decoded body that breaks its validate tags.
	ErrValidation = errors.New("validation failed")

	// ErrBodyTooLarge wraps a body cut off by the server's size limit.
	ErrBodyTooLarge = errors.New("request body too large")
)

var validate = sync.OnceValue(func() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	_ = v.RegisterValidation("phase", func(fl validator.FieldLevel) bool {
		_, err := domain.ParsePhase(fl.Field().String())
		return err == nil
	})

	return v
})

// BindAndValidate decodes the JSON body into v and checks its validate tags.
func BindAndValidate(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, tooLarge.Limit)
		}

		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	if err := validate().Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}

// fieldMessages renders validator failures by tag.
var fieldMessages = map[string]string{
	"required": "this field is required",
	"phase":    "must be one of: active, foreground, inactive, background",
}

// ValidationErrors returns a message per failing field of a BindAndValidate
// error, or an empty map.
func ValidationErrors(err error) map[string]string {
	out := make(map[string]string)

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return out
	}

	for _, fe := range fieldErrs {
		msg, ok := fieldMessages[fe.Tag()]
		if !ok {
			msg = "failed validation: " + fe.Tag()
		}

		out[fe.Field()] = msg
	}

	return out
}
