package validate

import "unicode"

// MaxStrengthScore is the highest PasswordStrength score: one point per
// criterion plus the long-password bonus
const MaxStrengthScore = 6

// Strength is a password strength estimate with hints for whatever is missing
type Strength struct {
	Score int      `json:"score"`
	Hints []string `json:"hints,omitempty"`
}

// PasswordStrength scores a password: one point each for length >= 8,
// a lowercase letter, an uppercase letter, a digit, and a special character,
// plus a bonus point for length >= 12. Hints name the unmet criteria.
func PasswordStrength(password string) Strength {
	var hasLower, hasUpper, hasDigit, hasSpecial bool
	length := 0
	for _, r := range password {
		length++
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	var s Strength
	criteria := []struct {
		met  bool
		hint string
	}{
		{length >= 8, "use at least 8 characters"},
		{hasLower, "add a lowercase letter"},
		{hasUpper, "add an uppercase letter"},
		{hasDigit, "add a digit"},
		{hasSpecial, "add a special character"},
	}
	for _, c := range criteria {
		if c.met {
			s.Score++
		} else {
			s.Hints = append(s.Hints, c.hint)
		}
	}

	// Length bonus, no hint: 12+ is encouraged, not required
	if length >= 12 {
		s.Score++
	}

	return s
}
