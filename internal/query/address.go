package query

import (
	"fmt"
	"regexp"
	"strings"
)

// zipPattern matches a 5-digit US ZIP code with an optional +4 suffix.
var zipPattern = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)

// enhanceAddress performs a naive comma-split into street, city, state,
// and postal code. A ZIP-shaped match anywhere in the string overrides
// the comma-split postal code.
func enhanceAddress(address string) (map[string]any, error) {
	if strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("empty address")
	}

	parts := strings.Split(address, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	derived := make(map[string]any)
	derived["street_address"] = parts[0]
	if len(parts) > 1 {
		derived["city"] = parts[1]
	}
	if len(parts) > 2 {
		derived["state"] = parts[2]
	}
	if len(parts) > 3 {
		derived["zip_code"] = parts[3]
	}

	if zip := zipPattern.FindString(address); zip != "" {
		derived["zip_code"] = zip
	}

	return derived, nil
}
