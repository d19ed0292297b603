package helpers

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	validate      *validator.Validate
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)
)

func init() {
	validate = validator.New()

	// Report fields by their JSON name so messages match the request body.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	must(validate.RegisterValidation("username", validateUsername))
	must(validate.RegisterValidation("strong_password", validateStrongPassword))
	must(validate.RegisterValidation("latitude_range", validateLatitude))
	must(validate.RegisterValidation("longitude_range", validateLongitude))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// ValidationErrors carries one human readable message per invalid field.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	return strings.Join(v, "; ")
}

// ValidateStruct runs the struct's validate tags and returns ValidationErrors
// when any field fails.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	msgs := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return msgs
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s é obrigatório", field)
	case "email":
		return fmt.Sprintf("%s deve ser um email válido", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s deve ter no mínimo %s caracteres", field, fe.Param())
		}
		return fmt.Sprintf("%s deve ser no mínimo %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s deve ter no máximo %s caracteres", field, fe.Param())
		}
		return fmt.Sprintf("%s deve ser no máximo %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s deve ser maior ou igual a %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s deve ser maior que %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s deve ser menor ou igual a %s", field, fe.Param())
	case "username":
		return fmt.Sprintf("%s deve ter entre 3 e 30 caracteres, começar com letra ou número e conter apenas letras, números, _ ou -", field)
	case "strong_password":
		return fmt.Sprintf("%s deve ter no mínimo 8 caracteres, com letra maiúscula, letra minúscula e número", field)
	case "latitude_range":
		return fmt.Sprintf("%s deve estar entre -90 e 90", field)
	case "longitude_range":
		return fmt.Sprintf("%s deve estar entre -180 e 180", field)
	}
	return fmt.Sprintf("%s é inválido", field)
}

func validateUsername(fl validator.FieldLevel) bool {
	return IsValidUsername(fl.Field().String())
}

func validateStrongPassword(fl validator.FieldLevel) bool {
	return IsStrongPassword(fl.Field().String())
}

func validateLatitude(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90 && lat <= 90
}

func validateLongitude(fl validator.FieldLevel) bool {
	lon := fl.Field().Float()
	return lon >= -180 && lon <= 180
}

// IsValidUsername accepts 3 to 30 characters of letters, digits, '_' and '-',
// starting with a letter or digit.
func IsValidUsername(username string) bool {
	if len(username) < 3 || len(username) > 30 {
		return false
	}
	return usernameRegex.MatchString(username)
}

// IsStrongPassword requires at least 8 characters with an upper case letter,
// a lower case letter and a digit.
func IsStrongPassword(password string) bool {
	if len([]rune(password)) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}
