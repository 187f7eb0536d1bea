package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"rentals/pkg/logger"
	"rentals/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// ruleInput is what a listing owner may submit. BOOKED rules only come from
// reservations, never from this path.
type ruleInput struct {
	ListingID string         `validate:"required,max=64"`
	StartDate time.Time      `validate:"required"`
	EndDate   time.Time      `validate:"required,gtfield=StartDate"`
	Kind      model.RuleKind `validate:"required,owner_kind"`
	Note      string         `validate:"max=500"`
}

type RuleValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewRuleValidator(log *logger.Logger) *RuleValidator {
	v := validator.New()

	if err := v.RegisterValidation("owner_kind", validateOwnerKind); err != nil {
		log.Fatal("Failed to register 'owner_kind' validator", "error", err)
	}

	log.Debug("Availability rule validator initialized")

	return &RuleValidator{
		validate: v,
		logger:   log,
	}
}

func validateOwnerKind(fl validator.FieldLevel) bool {
	kind := model.RuleKind(fl.Field().String())
	return kind.Valid() && kind != model.RuleBooked
}

func (v *RuleValidator) Validate(rule *model.AvailabilityRule) error {
	input := ruleInput{
		ListingID: rule.ListingID,
		StartDate: rule.StartDate,
		EndDate:   rule.EndDate,
		Kind:      rule.Kind,
		Note:      rule.Note,
	}

	if err := v.validate.Struct(input); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}

	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
		case "owner_kind":
			message = fmt.Sprintf("%s must be one of: %s %s", err.Field(), model.RuleAvailable, model.RuleBlocked)
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
