package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Benouakrim/Academora-02-sub002/core"
)

var (
	allRolesTag  = "allroles"
	allRolesText = "invalid roles"

	accountTypeTag  = "accounttype"
	accountTypeText = "invalid account type"

	onboardingTag  = "onboarding"
	onboardingText = "budget must be set together with a home state"
)

// RegisterValidators registers the user specific validation tags.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(allRolesTag, allRolesValidation)
	core.RegisterCustomTranslation(validate, translator, allRolesTag, allRolesText)

	_ = validate.RegisterValidation(accountTypeTag, accountTypeValidation)
	core.RegisterCustomTranslation(validate, translator, accountTypeTag, accountTypeText)

	validate.RegisterStructValidation(onboardingStructValidation, OnboardingAnswers{})
	core.RegisterCustomTranslation(validate, translator, onboardingTag, onboardingText)
}

// allRolesValidation checks that provided user roles are all in AllRoles
func allRolesValidation(fl validator.FieldLevel) bool {
	roles, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	for _, role := range roles {
		if !core.ContainsString(AllRoles, role) {
			return false
		}
	}
	return true
}

func accountTypeValidation(fl validator.FieldLevel) bool {
	return core.ContainsString(AccountTypes, fl.Field().String())
}

// onboardingStructValidation: a budget is only meaningful next to a home state,
// which decides in-state tuition when estimating aid.
func onboardingStructValidation(sl validator.StructLevel) {
	oa, ok := sl.Current().Interface().(OnboardingAnswers)
	if !ok {
		return
	}
	if oa.Budget != nil && oa.HomeState == "" {
		sl.ReportError(oa.HomeState, "home_state", "HomeState", onboardingTag, "")
	}
}
