package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type nameForm struct {
	First string `validate:"notblank,max=5"`
}

func TestNotBlank(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		tag   string
	}{
		{"Ana", ""},
		{"", "notblank"},
		{"   ", "notblank"},
		{"\t\n", "notblank"},
		{"Alejandra", "max"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			err := Validate.Struct(nameForm{First: tt.value})
			if tt.tag == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, map[string]string{"First": tt.tag}, FieldErrors(err))
		})
	}
}

func TestSanitizeName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Ana María", SanitizeName("  Ana \t María\n"))
	assert.Equal(t, "José", SanitizeName("Jo\x00sé"))
	assert.Equal(t, "", SanitizeName("   "))
}
