package preset

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/gogpu/filmlook/internal/segment"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Text fields are drawn as seven-segment glyphs.
	_ = v.RegisterValidation("segments", func(fl validator.FieldLevel) bool {
		return segment.Valid(fl.Field().String())
	})
	return v
}

// Validate checks parameter ranges and stamp text.
func (p Preset) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("preset %q: %w", p.ID, err)
	}
	return nil
}
