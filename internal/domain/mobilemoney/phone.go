package mobilemoney

import "strings"

// NormalizePhoneNumber converts Kenyan mobile numbers to the 2547XXXXXXXX /
// 2541XXXXXXXX form expected by the network. Accepted inputs are 07.., 01..,
// 7.., 1.., +254.. and 254.., with spaces and dashes ignored.
func NormalizePhoneNumber(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
		case r == '+' && b.Len() == 0:
		default:
			return "", ErrInvalidPhoneNumber
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "254"):
	case len(digits) == 10 && strings.HasPrefix(digits, "0"):
		digits = "254" + digits[1:]
	case len(digits) == 9:
		digits = "254" + digits
	default:
		return "", ErrInvalidPhoneNumber
	}

	if digits[3] != '7' && digits[3] != '1' {
		return "", ErrInvalidPhoneNumber
	}
	return digits, nil
}
