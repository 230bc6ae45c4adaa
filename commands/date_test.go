package commands

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ExampleFormatTime() {
	t := time.Date(2024, time.March, 5, 14, 7, 9, 123456789, time.UTC)

	out, _ := FormatTime(DefaultDateFormat, t)
	fmt.Println(out)

	// Output: 2024/03/05 14:07:09.123457
}

func TestFormatTime(t *testing.T) {
	cases := map[string]struct {
		format   string
		nsec     int
		expected string
	}{
		"default":         {format: DefaultDateFormat, nsec: 123456789, expected: "2024/03/05 14:07:09.123457"},
		"nanoseconds":     {format: "%f", nsec: 123456789, expected: "123456789"},
		"milliseconds":    {format: "%03f", nsec: 123456789, expected: "123"},
		"rounds":          {format: "%03f", nsec: 123500000, expected: "124"},
		"no carry":        {format: "%S.%03f", nsec: 999999999, expected: "09.999"},
		"clamped":         {format: "%12f", nsec: 5, expected: "000000005"},
		"repeated":        {format: "[%02f|%01f]", nsec: 250000000, expected: "[25|3]"},
		"escaped percent": {format: "%%f", nsec: 0, expected: "%f"},
		"literal":         {format: "no conversions", nsec: 0, expected: "no conversions"},
		"empty":           {format: "", nsec: 0, expected: ""},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			ts := time.Date(2024, time.March, 5, 14, 7, 9, tc.nsec, time.UTC)

			actual, err := FormatTime(tc.format, ts)

			require.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestDate(t *testing.T) {
	cases := goldenTestSuite{
		"no-arg":   {"date"},
		"empty":    {`date ""`},
		"custom":   {`date "%H:%M"`},
		"fraction": {`date %S.%03f`},
	}

	cases.Run(t)
}
