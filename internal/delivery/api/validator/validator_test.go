package validator

import (
	"testing"

	domainerrors "beatmarket/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Username string `json:"username" validate:"required,min=3,max=8"`
	Kind     string `json:"kind" validate:"omitempty,oneof=image audio"`
	Ignored  string `json:"-"`
}

func TestCustomValidator_Validate(t *testing.T) {
	v := New()

	tests := []struct {
		name        string
		input       sample
		wantDetails string
	}{
		{name: "valid", input: sample{Username: "mira"}},
		{name: "missing", input: sample{}, wantDetails: "username is required"},
		{name: "too short", input: sample{Username: "ab"}, wantDetails: "username must be at least 3"},
		{name: "too long", input: sample{Username: "abcdefghi"}, wantDetails: "username must be at most 8"},
		{name: "bad enum", input: sample{Username: "mira", Kind: "video"}, wantDetails: "kind must be one of [image audio]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.input)
			if tt.wantDetails == "" {
				assert.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, domainerrors.ErrValidationFailed)
			var appErr domainerrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantDetails, appErr.Details())
		})
	}
}
