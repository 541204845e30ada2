package server

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
)

func registerValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator is not go-playground/validator")
	}
	if err := v.RegisterValidation("teamcolor", func(fl validator.FieldLevel) bool {
		return domain.TeamColor(fl.Field().String()).Valid()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		role := domain.Role(fl.Field().String())
		return role == domain.RoleHost || role == domain.RolePlayer
	})
}
