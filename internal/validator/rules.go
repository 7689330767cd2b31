package validator

import (
	"log"

	"classifieds_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules регистрирует доменные теги валидации
func registerCustomRules(v *validator.Validate) {
	// Ошибка регистрации - ошибка конфигурации, стартовать нельзя
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-plan", validatePlan)
	mustRegister("is-posted-within", validatePostedWithin)
}

// Пустые значения пропускаем - для этого есть 'required'

func validatePlan(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.IsKnownPlan(value)
}

func validatePostedWithin(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", models.PostedAll, models.PostedLastDay, models.PostedLast30Days,
		models.PostedLastMonth, models.PostedLastYear:
		return true
	default:
		return false
	}
}
