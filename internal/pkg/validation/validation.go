package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"bloodlink/internal/domain"
)

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Struct validates v against its tags and reports the first failure as domain.ErrValidation,
// named by the field's JSON key.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return domain.Validationf("%s failed on %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return domain.Validationf("%s failed on %s", fe.Field(), fe.Tag())
	}
	return domain.Validationf("%v", err)
}
