package university

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Benouakrim/Academora-02-sub002/core"
)

var (
	scoreRangeTag  = "scorerange"
	scoreRangeText = "the 25th percentile cannot be above the 75th percentile"
)

// RegisterValidators registers the university struct level validation.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(attributesStructValidation, Attributes{})
	core.RegisterCustomTranslation(validate, translator, scoreRangeTag, scoreRangeText)
}

// attributesStructValidation checks SAT & ACT percentile bands.
func attributesStructValidation(sl validator.StructLevel) {
	attrs, ok := sl.Current().Interface().(Attributes)
	if !ok {
		return
	}
	if attrs.SAT25 != nil && attrs.SAT75 != nil && *attrs.SAT25 > *attrs.SAT75 {
		sl.ReportError(attrs.SAT25, "sat_25", "SAT25", scoreRangeTag, "")
	}
	if attrs.ACT25 != nil && attrs.ACT75 != nil && *attrs.ACT25 > *attrs.ACT75 {
		sl.ReportError(attrs.ACT25, "act_25", "ACT25", scoreRangeTag, "")
	}
}
