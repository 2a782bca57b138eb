package validation

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var once sync.Once

// Register installs the custom binding rules on gin's validator. Safe to call repeatedly.
func Register() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			logrus.Fatal("gin binding engine is not go-playground/validator")
		}
		if err := v.RegisterValidation("notblank", NotBlank); err != nil {
			logrus.WithError(err).Fatal("Failed to register notblank validation")
		}
	})
}

// NotBlank rejects strings made only of whitespace. The value itself is left untouched.
func NotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
