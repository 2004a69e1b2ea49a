package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// ErrBadRequest wraps every decode and validation failure.
var ErrBadRequest = errors.New("bad request")

type validatorSvc struct {
	validate   *validator.Validate
	translator ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *validatorSvc
)

// validation returns the shared validator with English messages that use
// JSON field names.
func validation() *validatorSvc {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		vSvc = &validatorSvc{validate: v, translator: trans}
	})
	return vSvc
}

// decodeJSON reads a single JSON document of at most maxBytes into T,
// rejecting unknown fields and trailing data, then validates it.
func decodeJSON[T any](r *http.Request, maxBytes int64) (T, error) {
	var zero T

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBytes))
	dec.DisallowUnknownFields()

	var dst T
	if err := dec.Decode(&dst); err != nil {
		if errors.Is(err, io.EOF) {
			return zero, fmt.Errorf("%w: empty body", ErrBadRequest)
		}
		return zero, fmt.Errorf("%w: invalid JSON: %v", ErrBadRequest, err)
	}
	if dec.More() {
		return zero, fmt.Errorf("%w: unexpected trailing data", ErrBadRequest)
	}

	if err := validation().validate.Struct(dst); err != nil {
		return zero, fmt.Errorf("%w: %s", ErrBadRequest, validationMessage(err))
	}
	return dst, nil
}

// validationMessage returns the translated message of the first failed field.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Translate(validation().translator)
	}
	return err.Error()
}
