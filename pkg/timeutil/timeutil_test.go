package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	want := Date(2024, time.October, 31)

	tests := []struct {
		name  string
		input string
	}{
		{"iso date", "2024-10-31"},
		{"padded", "  2024-10-31 "},
		{"rfc3339", "2024-10-31T18:30:00Z"},
		{"datetime", "2024-10-31 18:30"},
		{"dotted", "31.10.2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := ParseDate("")
	assert.ErrorIs(t, err, ErrEmptyDate)

	for _, in := range []string{"not-a-date", "2024-13-01", "2024-02-30", "31/10/2024"} {
		_, err := ParseDate(in)
		assert.Error(t, err, in)
	}
}

func TestFormatDateStr(t *testing.T) {
	a := time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-06-01", FormatDateStr(a))
	assert.Equal(t, "2024-06-01", FormatDateStr(StartOfDay(a)))
}
