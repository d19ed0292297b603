package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"12,5", 12.5},
		{"12.5", 12.5},
		{"1.234,56", 1234.56},
		{" R$ 5,90 ", 5.9},
		{"0", 0},
	}
	for _, tc := range cases {
		got, err := ParseDecimal(tc.in)
		require.NoError(t, err, tc.in)
		require.NotNil(t, got, tc.in)
		assert.InDelta(t, tc.want, *got, 1e-9, tc.in)
	}

	got, err := ParseDecimal("   ")
	assert.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseDecimal("abc")
	assert.Error(t, err)
}

func TestParseBRDate(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)

	got, err := ParseBRDate("05/03/2024", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, loc), got)

	got, err = ParseBRDate("05/03/2024 14:30", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 14, 30, 0, 0, loc), got)

	got, err = ParseBRDate("5/3/2024", loc)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Day())

	_, err = ParseBRDate("2024-03-05", loc)
	assert.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	loc := time.UTC

	got, dateOnly, err := ParseTimestamp("2024-03-05", loc)
	require.NoError(t, err)
	assert.True(t, dateOnly)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, loc), got)

	got, dateOnly, err = ParseTimestamp("2024-03-05T10:20:30", loc)
	require.NoError(t, err)
	assert.False(t, dateOnly)
	assert.Equal(t, 10, got.Hour())

	_, dateOnly, err = ParseTimestamp("2024-03-05T10:20:30-03:00", loc)
	require.NoError(t, err)
	assert.False(t, dateOnly)

	_, _, err = ParseTimestamp("05/03/2024", loc)
	assert.Error(t, err)
}

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	start, end := DayBounds(time.Date(2024, 3, 5, 13, 45, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2024, 3, 5, 23, 59, 59, 0, loc), end)
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "rua das flores 10", NormalizeText("  Rua   DAS Flores\t10 "))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "12345678", ShortID("1234567890ab"))
	assert.Equal(t, "abc", ShortID("abc"))
}
