// Package forms binds submitted HTML form fields to typed structs, validates
// them and collects per-field error messages for re-rendering.
package forms

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"yatube/app/models"

	"github.com/go-playground/validator/v10"
)

// NonFieldErrors is the Errors key for messages not tied to one input.
const NonFieldErrors = "__all__"

// Errors maps a form field name to its messages.
type Errors map[string][]string

// Add records msg against field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Get returns the messages for field.
func (e Errors) Get(field string) []string {
	return e[field]
}

// Has reports whether field has any messages.
func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// String joins every message, mostly for logs and JSON responses.
func (e Errors) String() string {
	var parts []string
	for field, msgs := range e {
		parts = append(parts, field+": "+strings.Join(msgs, " "))
	}
	return strings.Join(parts, "; ")
}

var validate = newFormValidator()

// newFormValidator reports fields by their `form` tag so error keys match
// the input names in the templates.
func newFormValidator() *validator.Validate {
	v := models.NewValidator()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// check validates form and records every failure in errs.
func check(form interface{}, errs Errors) {
	err := validate.Struct(form)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs.Add(NonFieldErrors, err.Error())
		return
	}
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), translateError(fe))
	}
}

// errorMessages maps validation tags to the messages shown next to inputs.
var errorMessages = map[string]string{
	"required": "This field is required.",
	"email":    "Enter a valid email address.",
	"username": "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.",
	"eqfield":  "The two password fields didn't match.",
}

// translateError converts a validator.FieldError to a human-readable message.
func translateError(fe validator.FieldError) string {
	if msg, ok := errorMessages[fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	default:
		return fmt.Sprintf("Enter a valid value (%s).", fe.Tag())
	}
}

// parse reads the request body, accepting both urlencoded and multipart forms.
func parse(r *http.Request, maxMemory int64) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return fmt.Errorf("failed to parse multipart form: %w", err)
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("failed to parse form: %w", err)
	}
	return nil
}

func field(r *http.Request, name string) string {
	return strings.TrimSpace(r.PostFormValue(name))
}

// SafeNext returns next when it is a path on this site, otherwise "".
func SafeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return ""
	}
	return next
}
