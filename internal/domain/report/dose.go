package report

import (
	"strconv"
	"strings"
)

// parsedDose is the internal tagged result of parsing one instruction.
// The exported functions collapse it to the total "unparseable means zero"
// contract so a malformed day degrades silently instead of failing the
// whole report.
type parsedDose struct {
	tablets float64
	ok      bool
}

func parseDoseText(text string) parsedDose {
	s := strings.TrimSpace(text)
	if s == "" {
		return parsedDose{}
	}
	s = strings.Replace(s, ",", ".", 1)
	s = strings.Join(strings.Fields(s), " ")

	// Mixed fraction: "1 1/4" reads as one whole tablet plus a quarter.
	if i := strings.IndexByte(s, ' '); i >= 0 && strings.Contains(s[i:], "/") {
		whole, err := strconv.ParseFloat(s[:i], 64)
		if err != nil {
			return parsedDose{}
		}
		frac := parseSimpleFraction(s[i+1:])
		if !frac.ok {
			return parsedDose{}
		}
		return parsedDose{tablets: whole + frac.tablets, ok: true}
	}

	if strings.Contains(s, "/") {
		return parseSimpleFraction(s)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return parsedDose{}
	}
	return parsedDose{tablets: v, ok: true}
}

func parseSimpleFraction(s string) parsedDose {
	num, den, found := strings.Cut(s, "/")
	if !found {
		return parsedDose{}
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return parsedDose{}
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil || d == 0 {
		return parsedDose{}
	}
	return parsedDose{tablets: n / d, ok: true}
}

// TextToFraction converts a single day's instruction text to a fractional
// tablet count. Accepts bare numbers ("1", "0.5", "0,5"), simple fractions
// ("1/2"), and mixed fractions ("1 1/4"). Empty or unparseable text yields 0;
// it never errors.
func TextToFraction(text string) float64 {
	p := parseDoseText(text)
	if !p.ok {
		return 0
	}
	return p.tablets
}

// WeeklyDoseMg sums the seven daily tablet fractions and converts to
// milligrams using the patient's tablet strength.
func WeeklyDoseMg(cal DoseCalendar, mgPerTablet float64) float64 {
	var tablets float64
	for _, day := range cal.Days() {
		tablets += TextToFraction(day)
	}
	return tablets * mgPerTablet
}
