package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "https://example.com"},
		{"  example.com/path  ", "https://example.com/path"},
		{"http://example.com", "http://example.com"},
		{"HTTPS://Example.com/A", "HTTPS://Example.com/A"},
		{"localhost:3000/x", "https://localhost:3000/x"},
		{"https://192.168.1.10/", "https://192.168.1.10/"},
		{"https://[::1]:8080/", "https://[::1]:8080/"},
	}
	for _, tt := range tests {
		got, err := NormalizeURL(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestNormalizeURL_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"not a url",
		"ftp://example.com",
		"javascript://alert(1)",
		"https://",
		"intranet",
		"https://-bad-.com",
		"https://exa_mple.com",
		"https://example..com",
		"https://exa mple.com",
	}
	for _, in := range invalid {
		_, err := NormalizeURL(in)
		assert.ErrorIs(t, err, ErrInvalidURL, in)
	}
}

func TestParseExpiration(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	e, err := ParseExpiration("")
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*24*time.Hour), *e.ExpiresAt(now))

	e, err = ParseExpiration("never")
	require.NoError(t, err)
	assert.Nil(t, e.ExpiresAt(now))

	e, err = ParseExpiration("Never")
	require.NoError(t, err)
	assert.True(t, e.Never)

	for in, days := range map[string]int{"1 day": 1, "7 days": 7, "90days": 90, " 365 Days ": 365} {
		e, err := ParseExpiration(in)
		require.NoError(t, err, in)
		assert.Equal(t, days, e.Days, in)
		assert.Equal(t, now.AddDate(0, 0, days), *e.ExpiresAt(now), in)
	}
}

func TestParseExpiration_Invalid(t *testing.T) {
	for _, in := range []string{"0 days", "-1 days", "forever", "7", "7 weeks", "1.5 days", "36501 days", "99999999999999999999 days"} {
		_, err := ParseExpiration(in)
		assert.ErrorIs(t, err, ErrInvalidExpiration, in)
	}
}
