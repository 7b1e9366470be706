package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantFirst string
		wantLast  string
	}{
		{"empty", "", "", ""},
		{"single word", "Lucia", "Lucia", ""},
		{"two words", "Lucia Quispe", "Lucia", "Quispe"},
		{"compound last name", "Lucia Quispe Mamani", "Lucia", "Quispe Mamani"},
		{"surrounding spaces", "  Lucia  Quispe ", "Lucia", "Quispe"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			first, last := SplitName(tt.input)
			assert.Equal(t, tt.wantFirst, first)
			assert.Equal(t, tt.wantLast, last)
		})
	}
}

func TestUser_FullName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "A B", (&User{FirstName: "A", LastName: "B"}).FullName())
	assert.Equal(t, "A", (&User{FirstName: "A"}).FullName())
	assert.Equal(t, "B", (&User{LastName: "B"}).FullName())
	assert.Equal(t, "", (&User{}).FullName())
	assert.False(t, (&User{}).HasName())
	assert.True(t, (&User{LastName: "B"}).HasName())
}
