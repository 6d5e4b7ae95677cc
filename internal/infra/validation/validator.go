package validation

import (
	"context"

	"github.com/go-playground/validator/v10"
)

// PlaygroundValidator validates bus messages against their struct tags.
type PlaygroundValidator struct {
	validate *validator.Validate
}

func New() *PlaygroundValidator {
	return &PlaygroundValidator{validate: validator.New()}
}

func (v *PlaygroundValidator) Validate(ctx context.Context, message any) error {
	if message == nil {
		return nil
	}
	return v.validate.StructCtx(ctx, message)
}
