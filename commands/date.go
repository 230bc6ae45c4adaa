package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/josephlewis42/iocsh/core/shell"
	"github.com/lestrrat-go/strftime"
)

// DefaultDateFormat is used by date when no format is given.
const DefaultDateFormat = "%Y/%m/%d %H:%M:%S.%06f"

// maxFracDigits is the precision of time.Time.
const maxFracDigits = 9

var now = time.Now

// Date prints the current time.
func Date(s *shell.Shell, args shell.Args) error {
	format, _ := args.String(0)
	if format == "" {
		format = DefaultDateFormat
	}

	text, err := FormatTime(format, now())
	if err != nil {
		return err
	}

	fmt.Fprintln(s.Stdout(), text)
	return nil
}

// FormatTime formats t using strftime conversions. In addition "%f" prints
// nanoseconds and "%0<n>f" prints the fraction of the second rounded to n
// digits.
func FormatTime(format string, t time.Time) (string, error) {
	var sb strings.Builder

	for format != "" {
		prefix, width, found, rest := nextFraction(format)

		if prefix != "" {
			text, err := strftime.Format(prefix, t)
			if err != nil {
				return "", fmt.Errorf("bad date format %q: %w", prefix, err)
			}
			sb.WriteString(text)
		}

		if found {
			sb.WriteString(fraction(t, width))
		}

		format = rest
	}

	return sb.String(), nil
}

// nextFraction splits format at the first fractional seconds conversion.
func nextFraction(format string) (prefix string, width int, found bool, rest string) {
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 >= len(format) {
			continue
		}

		switch next := format[i+1]; {
		case next == '%':
			i++

		case next == 'f':
			return format[:i], maxFracDigits, true, format[i+2:]

		case next >= '0' && next <= '9':
			j := i + 1
			n := 0
			for j < len(format) && format[j] >= '0' && format[j] <= '9' {
				n = n*10 + int(format[j]-'0')
				j++
			}
			if j < len(format) && format[j] == 'f' && n > 0 {
				if n > maxFracDigits {
					n = maxFracDigits
				}
				return format[:i], n, true, format[j+1:]
			}
		}
	}

	return format, 0, false, ""
}

// fraction rounds the sub-second part of t to width digits without
// carrying into the seconds.
func fraction(t time.Time, width int) string {
	div := 1
	for i := width; i < maxFracDigits; i++ {
		div *= 10
	}

	frac := t.Nanosecond() + div/2
	if frac >= int(time.Second) {
		frac = int(time.Second) - 1
	}

	return fmt.Sprintf("%0*d", width, frac/div)
}

func init() {
	addCmd(shell.FuncDef{
		Name: "date",
		Args: []shell.ArgDef{{Name: "format", Type: shell.ArgString}},
		Usage: "Print the current time.\n" +
			"  format - strftime format, %0<n>f prints n digits of the fraction of the second\n",
	}, Date)
}
