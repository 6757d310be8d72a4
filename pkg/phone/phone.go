package phone

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Normalize parses a user-supplied phone number and returns it in E.164 form.
// Numbers without a country prefix are interpreted in defaultRegion.
func Normalize(raw, defaultRegion string) (string, error) {
	clean := strings.TrimSpace(raw)
	if clean == "" {
		return "", nil
	}
	if strings.HasPrefix(clean, "00") {
		clean = "+" + strings.TrimPrefix(clean, "00")
	}

	region := strings.ToUpper(strings.TrimSpace(defaultRegion))
	if strings.HasPrefix(clean, "+") {
		region = ""
	}

	num, err := phonenumbers.Parse(clean, region)
	if err != nil {
		return "", fmt.Errorf("failed to parse phone number: %w", err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("invalid phone number: %s", raw)
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
