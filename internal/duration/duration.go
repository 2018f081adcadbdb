// Package duration converts whole-second counts to and from the display strings
// used across the timer, history and edit dialog.
package duration

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatClock renders seconds as HH:MM:SS. Hours are not capped at 24.
func FormatClock(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatHoursMinutes renders seconds as "Hh Mm", dropping the seconds.
func FormatHoursMinutes(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%dh %dm", secs/3600, (secs%3600)/60)
}

// SecondsToDecimalHoursString renders seconds as "H.MM" where MM is the
// whole-minute remainder scaled to a hundredth of an hour and rounded.
func SecondsToDecimalHoursString(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	minutes := (secs % 3600) / 60
	frac := int64(math.Round(float64(minutes) / 60 * 100))
	return fmt.Sprintf("%d.%02d", h, frac)
}

// DecimalHoursStringToSeconds parses "H.MM" back into seconds as
// H*3600 + (MM*0.6)*60. The fractional digits are read as a plain integer,
// so this is not the inverse of SecondsToDecimalHoursString for every input.
func DecimalHoursStringToSeconds(value string) (int64, error) {
	value = strings.TrimSpace(value)
	hoursPart, fracPart, _ := strings.Cut(value, ".")
	if i := strings.IndexByte(fracPart, '.'); i >= 0 {
		fracPart = fracPart[:i]
	}

	var h, f int64
	if hoursPart != "" {
		n, err := strconv.ParseInt(hoursPart, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse hours %q: %w", hoursPart, err)
		}
		h = n
	}
	if fracPart != "" {
		n, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse fraction %q: %w", fracPart, err)
		}
		f = n
	}

	minutes := float64(f) * 0.6
	return h*3600 + int64(math.Round(minutes*60)), nil
}
