// Package format renders record values the way the list pages show them to
// users in Mexico.
package format

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Mexican peso amounts group thousands with commas and use a decimal point.
const pesoPattern = "#,###.##"

// Currency formats an amount in pesos: "$12,345.50".
func Currency(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = math.Abs(amount)
	}
	return sign + "$" + humanize.FormatFloat(pesoPattern, amount)
}

// Count formats an integer with thousands separators: "1,234,567".
func Count(n int) string {
	return humanize.Comma(int64(n))
}

var (
	nonDigits      = regexp.MustCompile(`\D`)
	twoDigitArea   = regexp.MustCompile(`^(55|33|81)(\d{4})(\d{4})$`)
	threeDigitArea = regexp.MustCompile(`^(\d{3})(\d{3})(\d{4})$`)
)

// Phone masks a Mexican phone number. Mexico City, Guadalajara and
// Monterrey use two-digit area codes ("55 1234 5678"), the rest three
// ("222 123 4567"). A +52 prefix is dropped. Anything that is not a ten
// digit number is returned unchanged.
func Phone(raw string) string {
	digits := nonDigits.ReplaceAllString(raw, "")
	if len(digits) == 12 && strings.HasPrefix(digits, "52") {
		digits = digits[2:]
	}
	if len(digits) != 10 {
		return raw
	}
	if twoDigitArea.MatchString(digits) {
		return twoDigitArea.ReplaceAllString(digits, "$1 $2 $3")
	}
	return threeDigitArea.ReplaceAllString(digits, "$1 $2 $3")
}

var spanishMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: "justo ahora", DivBy: time.Second},
	{D: 2 * time.Minute, Format: "%s 1 minuto", DivBy: 1},
	{D: time.Hour, Format: "%s %d minutos", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "%s 1 hora", DivBy: 1},
	{D: humanize.Day, Format: "%s %d horas", DivBy: time.Hour},
	{D: 2 * humanize.Day, Format: "%s 1 día", DivBy: 1},
	{D: humanize.Week, Format: "%s %d días", DivBy: humanize.Day},
	{D: 2 * humanize.Week, Format: "%s 1 semana", DivBy: 1},
	{D: humanize.Month, Format: "%s %d semanas", DivBy: humanize.Week},
	{D: 2 * humanize.Month, Format: "%s 1 mes", DivBy: 1},
	{D: humanize.Year, Format: "%s %d meses", DivBy: humanize.Month},
	{D: 18 * humanize.Month, Format: "%s 1 año", DivBy: 1},
	{D: 2 * humanize.Year, Format: "%s 2 años", DivBy: 1},
	{D: humanize.LongTime, Format: "%s %d años", DivBy: humanize.Year},
	{D: math.MaxInt64, Format: "hace mucho tiempo", DivBy: 1},
}

// RelativeTime describes then relative to now: "hace 3 días",
// "dentro de 2 horas".
func RelativeTime(then, now time.Time) string {
	return humanize.CustomRelTime(then, now, "hace", "dentro de", spanishMagnitudes)
}

var shortMonths = [...]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sep", "oct", "nov", "dic"}

// Date formats a calendar day as "19 oct 2026".
func Date(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), shortMonths[t.Month()-1], t.Year())
}
