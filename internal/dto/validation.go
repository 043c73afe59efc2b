package dto

import (
	"github.com/go-playground/validator/v10"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
)

// NewValidator returns a validator with the domain enum tags registered:
// role, priority, case_status, analyst_status, exhibit_type, exhibit_status,
// approval_type, decision and document_kind.
func NewValidator() *validator.Validate {
	v := validator.New()
	RegisterValidations(v)
	return v
}

// RegisterValidations adds the domain enum tags to v.
func RegisterValidations(v *validator.Validate) {
	rules := map[string]func(string) bool{
		"role":           func(s string) bool { return models.Role(s).Valid() },
		"priority":       func(s string) bool { return models.Priority(s).Valid() },
		"case_status":    func(s string) bool { return models.CaseStatus(s).Valid() },
		"analyst_status": func(s string) bool { return models.AnalystStatus(s).Valid() },
		"exhibit_type":   func(s string) bool { return models.ExhibitType(s).Valid() },
		"exhibit_status": func(s string) bool {
			_, ok := models.ParseExhibitStatus(s)
			return ok
		},
		"approval_type": func(s string) bool { return models.ApprovalType(s).Valid() },
		"decision": func(s string) bool {
			_, ok := models.Decision(s).Status()
			return ok
		},
		"document_kind": func(s string) bool { return models.DocumentKind(s).Valid() },
	}
	for tag, ok := range rules {
		check := ok
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().String())
		})
	}
}
