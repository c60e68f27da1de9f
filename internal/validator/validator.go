package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	setupOnce sync.Once
	trans     ut.Translator
)

// Setup wires English translations into Gin's binding validator and makes
// error messages use JSON field names instead of Go struct names. Safe to
// call more than once.
func Setup() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*govalidator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		locale := en.New()
		trans, _ = ut.New(locale, locale).GetTranslator("en")
		_ = en_translations.RegisterDefaultTranslations(v, trans)
	})
}

// Bind decodes and validates the JSON request body into dst. It returns nil
// on success, otherwise a field-to-message map ready for the error envelope.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// TranslateErrors converts a binding error into per-field messages. JSON
// syntax errors and other non-validation failures collapse into a single
// "detail" entry.
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if !errors.As(err, &ve) {
		fields["detail"] = err.Error()
		return fields
	}
	for _, fe := range ve {
		fields[fe.Field()] = fe.Translate(trans)
	}
	return fields
}
