package query

import (
	"fmt"
	"strings"
)

// enhancePhone strips formatting from a phone number and, for ten-digit
// numbers, generates the canonical US formats.
func enhancePhone(phone string) (map[string]any, error) {
	derived := make(map[string]any)

	var b strings.Builder
	for i, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "" {
		return nil, fmt.Errorf("no digits in phone value %q", phone)
	}
	derived["clean_phone"] = clean

	if len(clean) == 10 {
		derived["phone_variations"] = []string{
			clean,
			fmt.Sprintf("%s-%s-%s", clean[:3], clean[3:6], clean[6:]),
			fmt.Sprintf("(%s) %s-%s", clean[:3], clean[3:6], clean[6:]),
			"+1" + clean,
		}
	}

	return derived, nil
}

// enhanceEmail splits an email into local part and domain and generates
// case-normalized variants.
func enhanceEmail(email string) (map[string]any, error) {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return nil, fmt.Errorf("malformed email %q", email)
	}

	local := email[:at]
	domain := email[at+1:]

	derived := map[string]any{
		"email_username": local,
		"email_domain":   domain,
		"email_variations": []string{
			email,
			strings.ToLower(email),
			local + "@" + strings.ToLower(domain),
			strings.ToLower(local) + "@" + strings.ToLower(domain),
		},
	}

	return derived, nil
}
