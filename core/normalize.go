package core

import (
	"strings"
	"time"
)

// dobLayouts are tried in order when canonicalizing a date of birth. Day
// comes before month for the ambiguous numeric forms.
var dobLayouts = []string{
	"2-1-2006",
	"2/1/2006",
	"2.1.2006",
	"2 1 2006",
	"2006-01-02",
}

// normalizeValue canonicalizes a detected value for deduplication identity.
// The normalized form is never shown; findings keep the original value.
func normalizeValue(value string, t PIIType) string {
	v := strings.TrimSpace(value)

	switch t {
	case PIIAadhaar, PIISSN, PIICreditCard:
		return digitsOnly(v)
	case PIIPhone:
		digits := digitsOnly(v)
		if len(digits) > 10 {
			return digits[len(digits)-10:]
		}
		return digits
	case PIIEmail, PIIIPAddress, PIIHealth, PIIDSAR:
		return strings.ToLower(v)
	case PIIPan, PIIPassport:
		return strings.ToUpper(strings.ReplaceAll(v, " ", ""))
	case PIIDOB:
		for _, layout := range dobLayouts {
			if parsed, err := time.Parse(layout, v); err == nil {
				return parsed.Format("2006-01-02")
			}
		}
		return v
	default:
		return strings.ToLower(v)
	}
}

func digitsOnly(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
