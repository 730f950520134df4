// Package parse turns loosely formatted spreadsheet and CSV cell values into
// calendar dates and decimal amounts.
package parse

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

var ErrInvalidDate = errors.New("invalid date")

const (
	// Spreadsheet serial day numbers are only trusted inside this open interval
	// (roughly 1982 to 2064). Serial 25569 is 1970-01-01.
	serialMin   = 30000
	serialMax   = 60000
	serialEpoch = 25569
)

var (
	dayFirstRe = regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{2,4})$`)
	isoRe      = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})(?:[T ].*)?$`)
)

var fallbackLayouts = []string{
	time.RFC3339,
	"2006/01/02",
	"02 Jan 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
	"20060102",
}

// FlexibleDate accepts day-first dates (DD/MM/YYYY, DD-MM-YYYY, DD.MM.YYYY),
// ISO dates, spreadsheet serial numbers and a few common written layouts.
// Supported input types are string, float64, int, int64 and time.Time.
func FlexibleDate(raw any) (core.Date, error) {
	switch v := raw.(type) {
	case nil:
		return core.Date{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	case time.Time:
		if v.IsZero() {
			return core.Date{}, fmt.Errorf("%w: zero time", ErrInvalidDate)
		}
		return core.DateOf(v), nil
	case core.Date:
		if v.IsEmpty() {
			return core.Date{}, fmt.Errorf("%w: zero date", ErrInvalidDate)
		}
		return v, nil
	case float64:
		return fromSerial(v)
	case int:
		return fromSerial(float64(v))
	case int64:
		return fromSerial(float64(v))
	case string:
		return parseDateString(v)
	default:
		return core.Date{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidDate, raw)
	}
}

func parseDateString(raw string) (core.Date, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return core.Date{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}

	if m := dayFirstRe.FindStringSubmatch(s); m != nil {
		year := m[3]
		if len(year) == 2 {
			year = "20" + year
		}
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		y, _ := strconv.Atoi(year)
		if day > 31 || month > 12 {
			return core.Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
		}
		return calendarDate(y, month, day, raw)
	}

	if m := isoRe.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return calendarDate(y, month, day, raw)
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if d, err := fromSerial(f); err == nil {
			return d, nil
		}
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}
	return core.Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// calendarDate rejects days that time.Date would roll into the next month.
func calendarDate(year, month, day int, raw string) (core.Date, error) {
	if year < 1 || month < 1 || month > 12 || day < 1 || day > core.DaysInMonth(year, month) {
		return core.Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return core.NewDate(year, month, day), nil
}

func fromSerial(v float64) (core.Date, error) {
	if math.IsNaN(v) || v <= serialMin || v >= serialMax {
		return core.Date{}, fmt.Errorf("%w: serial %v out of range", ErrInvalidDate, v)
	}
	secs := (v - serialEpoch) * 86400
	return core.DateOf(time.Unix(int64(secs), 0).UTC()), nil
}

// FormatDate renders d as YYYY-MM-DD.
func FormatDate(d core.Date) string {
	return d.String()
}
