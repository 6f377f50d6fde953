package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "only alphanumeric characters and underscores are allowed"
	alphaNumUnderRegex = regexp.MustCompile(`^[\w\s]+$`)

	notBlankTag  = "notblank"
	notBlankText = "this field cannot be blank"

	usStateTag  = "usstate"
	usStateText = "invalid US state code"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"

	// USStates holds the two-letter codes accepted by the usstate tag, mapped to their census region.
	USStates = map[string]string{
		"CT": "northeast", "ME": "northeast", "MA": "northeast", "NH": "northeast", "RI": "northeast",
		"VT": "northeast", "NJ": "northeast", "NY": "northeast", "PA": "northeast",
		"IL": "midwest", "IN": "midwest", "MI": "midwest", "OH": "midwest", "WI": "midwest", "IA": "midwest",
		"KS": "midwest", "MN": "midwest", "MO": "midwest", "NE": "midwest", "ND": "midwest", "SD": "midwest",
		"DE": "south", "DC": "south", "FL": "south", "GA": "south", "MD": "south", "NC": "south", "SC": "south",
		"VA": "south", "WV": "south", "AL": "south", "KY": "south", "MS": "south", "TN": "south", "AR": "south",
		"LA": "south", "OK": "south", "TX": "south",
		"AZ": "west", "CO": "west", "ID": "west", "MT": "west", "NV": "west", "NM": "west", "UT": "west",
		"WY": "west", "AK": "west", "CA": "west", "HI": "west", "OR": "west", "WA": "west",
	}
)

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// InitValidators registers the default translations and custom global validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(alphaNumUnderTag, alphaNumUnderValidation)
	RegisterCustomTranslation(validate, translator, alphaNumUnderTag, alphaNumUnderText)

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	RegisterCustomTranslation(validate, translator, notBlankTag, notBlankText)

	_ = validate.RegisterValidation(usStateTag, usStateValidation)
	RegisterCustomTranslation(validate, translator, usStateTag, usStateText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// NewValidate returns a ready to use validator and its translator.
func NewValidate() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := NewTranslator()
	InitValidators(validate, translator)
	return validate, translator
}

// Custom Global Validators

// alphaNumUnderValidation only allows alphanumeric characters and underscores.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// usStateValidation accepts two-letter US state codes (case-insensitive).
func usStateValidation(fl validator.FieldLevel) bool {
	_, ok := USStates[strings.ToUpper(fl.Field().String())]
	return ok
}

// RegionOf returns the census region of a state code or "" when unknown.
func RegionOf(state string) string {
	return USStates[strings.ToUpper(strings.TrimSpace(state))]
}
