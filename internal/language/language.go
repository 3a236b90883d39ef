package language

import (
	"strings"

	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

func parse(code string) (xlang.Base, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return xlang.Base{}, false
	}
	base, err := xlang.ParseBase(code)
	if err != nil {
		tag, tagErr := xlang.Parse(code)
		if tagErr != nil {
			return xlang.Base{}, false
		}
		var confidence xlang.Confidence
		base, confidence = tag.Base()
		if confidence == xlang.No {
			return xlang.Base{}, false
		}
	}
	return base, true
}

// ToISO2 converts a recognized language code to ISO 639-1 (2-letter).
// Returns empty string for unrecognized input or languages without a 2-letter code.
func ToISO2(code string) string {
	base, ok := parse(code)
	if !ok {
		return ""
	}
	value := base.String()
	if len(value) != 2 {
		return ""
	}
	return value
}

// ToISO3 converts a recognized language code to its 3-letter form, as written
// into container stream metadata. Returns "und" for unrecognized input.
func ToISO3(code string) string {
	base, ok := parse(code)
	if !ok {
		return "und"
	}
	return base.ISO3()
}

// DisplayName returns the English name for a language code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	base, ok := parse(trimmed)
	if !ok {
		return strings.ToUpper(trimmed)
	}
	if name := display.English.Languages().Name(base); name != "" {
		return name
	}
	return strings.ToUpper(trimmed)
}
