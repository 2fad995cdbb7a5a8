package middleware

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/01moynul/pixelpulse-golang/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	ginjson "github.com/gin-gonic/gin/codec/json"
	"github.com/go-playground/validator/v10"
)

const payloadKey = "payload"

var (
	registerOnce   sync.Once
	categoryNameRe = regexp.MustCompile(`^[A-Za-z0-9 \-]+$`)
)

// FieldError is one entry of a 400 validation response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// sanitizer is implemented by payloads that trim or normalize themselves
// before validation.
type sanitizer interface {
	Sanitize()
}

// RegisterValidators installs the custom binding tags on gin's validator and
// makes field errors report JSON names. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
			return isStrongPassword(fl.Field().String())
		})
		_ = v.RegisterValidation("categoryname", func(fl validator.FieldLevel) bool {
			return categoryNameRe.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("postcategory", func(fl validator.FieldLevel) bool {
			return models.IsPostCategory(fl.Field().String())
		})
	})
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// isStrongPassword requires a lowercase letter, an uppercase letter and a digit.
func isStrongPassword(s string) bool {
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

// ValidateJSON decodes the request body into a T, sanitizes and validates it,
// answering 400 on failure. Handlers read the result with Payload.
func ValidateJSON[T any]() gin.HandlerFunc {
	RegisterValidators()
	return func(c *gin.Context) {
		in := new(T)

		// 1. --- Decode ---
		// gin's binders validate while binding, so decode with gin's JSON
		// codec first and validate after Sanitize has run.
		if err := decodeJSON(c.Request.Body, in); err != nil && !errors.Is(err, io.EOF) {
			abortValidation(c, []FieldError{{Field: "body", Message: "Invalid JSON body"}})
			return
		}

		// 2. --- Sanitize ---
		if s, ok := any(in).(sanitizer); ok {
			s.Sanitize()
		}

		// 3. --- Validate ---
		if err := binding.Validator.ValidateStruct(in); err != nil {
			abortValidation(c, FieldErrors(err))
			return
		}

		c.Set(payloadKey, in)
		c.Next()
	}
}

// decodeJSON decodes like binding.JSON, minus the validation step.
func decodeJSON(r io.Reader, obj any) error {
	decoder := ginjson.API.NewDecoder(r)
	if binding.EnableDecoderUseNumber {
		decoder.UseNumber()
	}
	if binding.EnableDecoderDisallowUnknownFields {
		decoder.DisallowUnknownFields()
	}
	return decoder.Decode(obj)
}

// Payload returns the body validated by ValidateJSON[T].
func Payload[T any](c *gin.Context) *T {
	v, ok := c.Get(payloadKey)
	if !ok {
		return nil
	}
	p, _ := v.(*T)
	return p
}

func abortValidation(c *gin.Context, errs []FieldError) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": "Validation failed",
		"errors":  errs,
	})
}

// FieldErrors converts a validator error into response entries.
func FieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "body", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	label := fe.Field()
	if label != "" {
		label = strings.ToUpper(label[:1]) + label[1:]
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", label, fe.Param())
	case "email":
		return "Please provide a valid email"
	case "url":
		return label + " must be a valid URL"
	case "hexcolor":
		return label + " must be a valid hex color code"
	case "strongpassword":
		return "Password must contain at least one uppercase letter, one lowercase letter, and one number"
	case "categoryname":
		return "Category name can only contain letters, numbers, spaces, and hyphens"
	case "postcategory":
		return "Invalid category selected"
	default:
		return label + " is invalid"
	}
}
