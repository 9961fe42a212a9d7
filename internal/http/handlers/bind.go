package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

func init() {
	// request bodies are statically typed: unknown keys are errors, not noise
	binding.EnableDecoderDisallowUnknownFields = true

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("notblank", validators.NotBlank)
	}
}

func jsonFieldName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return sf.Name
	}
	return name
}

// BindJSON decodes and validates the body into out. On failure it writes a 400 whose
// message names the first offending field and returns false.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)

	if err == nil {
		return true
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		RespondError(ctx, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large", nil)
		return false
	}

	fields := parseBindError(err)

	message := "invalid request body"
	if len(fields) > 0 {
		message = fields[0].Message
	}

	RespondBadRequest(ctx, message, gin.H{"fields": fields})
	return false
}

func parseBindError(err error) []FieldError {
	// validator errors (struct bind tags)

	var validatorError validator.ValidationErrors

	if errors.As(err, &validatorError) {
		fields := make([]FieldError, 0, len(validatorError))

		for _, fieldError := range validatorError {
			field := fieldPath(fieldError)
			rule := fieldError.Tag()
			param := fieldError.Param()

			fields = append(fields, FieldError{
				Field:   field,
				Rule:    rule,
				Param:   param,
				Message: validationMessage(field, rule, param),
			})
		}
		return fields
	}

	// in the event of a type mismatch

	var typeError *json.UnmarshalTypeError

	if errors.As(err, &typeError) {
		field := strings.TrimSpace(typeError.Field)

		return []FieldError{{
			Field:   field,
			Rule:    "type",
			Message: fmt.Sprintf("%q must be a %s", field, typeError.Type.String()),
		}}
	}

	if field, ok := unknownField(err); ok {
		return []FieldError{{
			Field:   field,
			Rule:    "unknown",
			Message: fmt.Sprintf("%q is not allowed", field),
		}}
	}

	var syntaxError *json.SyntaxError

	if errors.As(err, &syntaxError) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return []FieldError{{
			Field:   "",
			Rule:    "json",
			Message: "request body must be a valid JSON object",
		}}
	}

	return nil
}

// unknownField extracts the key from encoding/json's DisallowUnknownFields error.
func unknownField(err error) (string, bool) {
	rest, ok := strings.CutPrefix(err.Error(), "json: unknown field ")
	if !ok {
		return "", false
	}
	return strings.Trim(rest, `"`), true
}

// fieldPath turns "RegisterRequest.email" into "email".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func validationMessage(field, rule, param string) string {
	q := fmt.Sprintf("%q", field)

	switch rule {
	case "required":
		return q + " is required"
	case "notblank":
		return q + " is not allowed to be empty"
	case "email":
		return q + " must be a valid email"
	case "min":
		return q + " length must be at least " + param + " characters long"
	case "max":
		return q + " length must be less than or equal to " + param + " characters long"
	default:
		if param != "" {
			return fmt.Sprintf("%s failed %s validation (%s)", q, rule, param)
		}
		return q + " failed " + rule + " validation"
	}
}
