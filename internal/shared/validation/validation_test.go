package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrasnagy-data/feedback/internal/shared/errs"
)

type signup struct {
	Username string `form:"username" validate:"required,min=1,max=20,excludesall=/"`
	Email    string `form:"email" validate:"required,email,max=50"`
	Nickname string `validate:"max=5"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name   string
		in     signup
		fields map[string]string
	}{
		{
			name: "valid input",
			in:   signup{Username: "alice", Email: "a@x.com"},
		},
		{
			name: "missing required fields",
			in:   signup{},
			fields: map[string]string{
				"username": "This field is required.",
				"email":    "This field is required.",
			},
		},
		{
			name: "too long and bad email",
			in:   signup{Username: strings.Repeat("a", 21), Email: "nope"},
			fields: map[string]string{
				"username": "Field cannot be longer than 20 characters.",
				"email":    "Invalid email address.",
			},
		},
		{
			name: "excluded character",
			in:   signup{Username: "a/b", Email: "a@x.com"},
			fields: map[string]string{
				"username": `Field cannot contain any of "/".`,
			},
		},
		{
			name: "untagged field uses struct name",
			in:   signup{Username: "bob", Email: "b@x.com", Nickname: "toolong"},
			fields: map[string]string{
				"Nickname": "Field cannot be longer than 5 characters.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}

			verr, ok := errs.AsValidation(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Equal(t, tt.fields, verr.Fields)
		})
	}
}

func TestStruct_MultibyteLength(t *testing.T) {
	// 20 runes, 40 bytes
	err := Struct(signup{Username: strings.Repeat("é", 20), Email: "a@x.com"})
	assert.NoError(t, err)
}
