package models

import (
	customErrors "github.com/HARDIK-TSH1392/Sandbox/internal/models/errors"
)

type Language string

const (
	Python     Language = "python"
	JavaScript Language = "javascript"
)

// ParseLanguage resolves the user-facing language token, accepting the
// common node aliases for javascript.
func ParseLanguage(token string) (Language, error) {
	switch token {
	case "python", "python3", "py":
		return Python, nil
	case "javascript", "js", "node", "nodejs":
		return JavaScript, nil
	default:
		return "", customErrors.ErrUnsupportedLanguage
	}
}

func (l Language) String() string {
	return string(l)
}
