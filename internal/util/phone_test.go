package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeE164(t *testing.T) {
	cases := map[string]string{
		"+1 (555) 123-4567": "+15551234567",
		"998 90.123.45.67":  "+998901234567",
		" +447700900123 ":   "+447700900123",
	}
	for in, want := range cases {
		got, err := NormalizeE164(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
}

func TestNormalizeE164Rejects(t *testing.T) {
	for _, in := range []string{"", "12345", "+1 555 abc 4567", "1+5551234567", "++15551234567", "1234567890123456"} {
		_, err := NormalizeE164(in)
		assert.Error(t, err, in)
	}
}
