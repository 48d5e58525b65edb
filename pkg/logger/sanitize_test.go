package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizedEmail(t *testing.T) {
	assert.Equal(t, "a****@*******.com", SanitizedEmail("alice@example.com"))
	assert.Equal(t, "b@***.**.uk", SanitizedEmail("b@foo.co.uk"))
	assert.Equal(t, "[invalid-email]", SanitizedEmail("not-an-email"))
	assert.Equal(t, "[invalid-email]", SanitizedEmail("@example.com"))
	assert.Equal(t, "[invalid-email]", SanitizedEmail("a@b@c.com"))
}

func TestRedactQuery(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"plain paging", "limit=9&startIndex=0", "limit=9&startIndex=0"},
		{"token", "id_token=abc", "id_token=REDACTED"},
		{"mixed case key", "Email=a@b.com&limit=9", "Email=REDACTED&limit=9"},
		{"unparseable", "a=%zz", "[REDACTED]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactQuery(tt.raw))
		})
	}
}
