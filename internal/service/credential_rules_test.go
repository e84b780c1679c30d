package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidUsername(t *testing.T) {
	tests := map[string]bool{
		"alice01":       true,
		"a12345":        true,
		"abcdefghijkl":  true,
		"abcde":         false,
		"abcdefghijklm": false,
		"1alice":        false,
		"Alice01":       false,
		"alice_01":      false,
		"":              false,
	}
	for username, want := range tests {
		assert.Equal(t, want, ValidUsername(username), username)
	}
}

func TestValidPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{name: "valid", password: "Secure!Pw9x", want: true},
		{name: "too short", password: "Se!9x", want: false},
		{name: "too long", password: "Secure!Pw9x" + "Secure!Pw9x" + "Secure!Pw9x" + "Secure!Pw9x" + "Secure!Pw9x", want: false},
		{name: "no digit", password: "Secure!Pwqx", want: false},
		{name: "no lower", password: "SECURE!PW9X", want: false},
		{name: "no upper", password: "secure!pw9x", want: false},
		{name: "no symbol", password: "SecurePw9xy", want: false},
		{name: "disallowed symbol", password: "Secure?Pw9x", want: false},
		{name: "ascending run", password: "Secure!Pw9xyz", want: false},
		{name: "ascending run mixed case", password: "SecuRST!Pw9x", want: false},
		{name: "descending run", password: "Secure!Pw987", want: false},
		{name: "identical run", password: "Secure!Pw9xxx", want: false},
		{name: "username fragment", password: "Sec!Pw9xlic", want: false},
		{name: "reversed username fragment", password: "Sec!Pw9xcil", want: false},
		{name: "username fragment case insensitive", password: "Sec!Pw9xLIC", want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ValidPassword("alice01", tc.password))
		})
	}
}

func TestValidatorUsernameTag(t *testing.T) {
	v := NewValidator()
	type payload struct {
		Username string `validate:"username"`
	}
	assert.NoError(t, v.Struct(payload{Username: "alice01"}))
	assert.Error(t, v.Struct(payload{Username: "x"}))
}
