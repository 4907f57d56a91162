package company

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var numberPrinter = message.NewPrinter(language.English)

// Sectors lists the structured industry sectors, if any.
func Sectors(i Industry) []string {
	v, ok := i.Value()
	if !ok {
		return nil
	}
	return v.Sectors
}

// Tenure renders how long the CEO has held the role, e.g. "3 years".
// It returns "" when the start year is unknown.
func Tenure(c CEO, now time.Time) string {
	v, ok := c.Value()
	if !ok || v.Since == 0 {
		return ""
	}
	return pluralYears(now.Year()-v.Since, "")
}

// FullAddress joins every known location part.
func FullAddress(l Location) string {
	switch l.Kind() {
	case KindSimple:
		text, _ := l.Text()
		return text
	case KindStructured:
		v, _ := l.Value()
		if s := joinNonEmpty(v.Address, v.City, v.ZipCode, v.Country); s != "" {
			return s
		}
	}
	return NotAvailable
}

// Age returns the company age in years, or false when founded is unknown.
func Age(founded *int, now time.Time) (int, bool) {
	if founded == nil || *founded == 0 {
		return 0, false
	}
	return now.Year() - *founded, true
}

// FormatAge renders the company age, e.g. "1 year old".
func FormatAge(founded *int, now time.Time) string {
	age, ok := Age(founded, now)
	if !ok {
		return NotAvailable
	}
	return pluralYears(age, " old")
}

// FormatEmployeeCount renders the head count with thousands separators.
func FormatEmployeeCount(count *int) string {
	if count == nil || *count == 0 {
		return NotAvailable
	}
	return numberPrinter.Sprintf("%d", *count)
}

func pluralYears(n int, suffix string) string {
	if n == 1 {
		return "1 year" + suffix
	}
	var b strings.Builder
	b.WriteString(strconv.Itoa(n))
	b.WriteString(" years")
	b.WriteString(suffix)
	return b.String()
}
