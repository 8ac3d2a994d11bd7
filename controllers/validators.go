package controllers

import (
	"errors"

	"mytown-issues/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the "issuestatus" and "priority" binding tags to
// gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}
	if err := v.RegisterValidation("issuestatus", func(fl validator.FieldLevel) bool {
		_, err := models.ParseStatus(fl.Field().String())
		return err == nil
	}); err != nil {
		return err
	}
	return v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		_, err := models.ParsePriority(fl.Field().String())
		return err == nil
	})
}
