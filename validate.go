package main

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// phoneRE accepts an optional leading +, an optional parenthesized area code
// and digits with -, . or space separators, e.g. "03543-440903", "3516618348".
var phoneRE = regexp.MustCompile(`^\+?\(?\d{0,5}\)?[\-\.\s]?([0-9]*[\-\.\s]?)*\d*$`)

// registerValidators adds the custom checks used by binding tags to gin's
// validator engine. Call once before routes are served.
func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRE.MatchString(fl.Field().String())
	})
}
