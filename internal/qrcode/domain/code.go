package domain

import (
	"strings"

	"github.com/ayurtrace/ayurtrace/internal/apperror"
	"github.com/oklog/ulid/v2"
)

const codePrefix = "AYU-"

var (
	ErrInvalidCode = apperror.Validation("invalid_qr_code")
	ErrNotFound    = apperror.NotFound("qr_code_not_found")
)

// NewCode returns a fresh printable code. Codes sort by creation time.
func NewCode() string {
	return codePrefix + ulid.Make().String()
}

// NormalizeCode accepts codes in any case with surrounding whitespace.
func NormalizeCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if !strings.HasPrefix(code, codePrefix) {
		return "", ErrInvalidCode
	}
	if _, err := ulid.ParseStrict(strings.TrimPrefix(code, codePrefix)); err != nil {
		return "", ErrInvalidCode
	}
	return code, nil
}
