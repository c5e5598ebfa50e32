package types

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MinAccountIDLen = 2
	MaxAccountIDLen = 64
)

var (
	ErrAccountIDTooShort    = errors.New("account id too short")
	ErrAccountIDTooLong     = errors.New("account id too long")
	ErrAccountIDInvalidChar = errors.New("account id has an invalid character")
	ErrAccountIDSeparator   = errors.New("account id has a redundant separator")
)

// AccountID is a host chain account name such as "alice.near"
type AccountID string

// ParseAccountID validates str and returns it as an AccountID
func ParseAccountID(str string) (AccountID, error) {
	id := AccountID(str)
	if err := id.Validate(); err != nil {
		return "", err
	}

	return id, nil
}

// MustAccountID is ParseAccountID for constants; it panics on invalid input
func MustAccountID(str string) AccountID {
	id, err := ParseAccountID(str)
	if err != nil {
		panic(fmt.Errorf("invalid account id %q: %w", str, err))
	}

	return id
}

// Validate checks the account naming rules: 2 to 64 characters, lowercase
// alphanumeric parts joined by single '-', '_' or '.' separators
func (a AccountID) Validate() error {
	switch {
	case len(a) < MinAccountIDLen:
		return ErrAccountIDTooShort
	case len(a) > MaxAccountIDLen:
		return ErrAccountIDTooLong
	}

	lastSeparator := true

	for i := 0; i < len(a); i++ {
		c := a[i]

		switch {
		case (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9'):
			lastSeparator = false
		case c == '-' || c == '_' || c == '.':
			if lastSeparator {
				return fmt.Errorf("%w at position %d", ErrAccountIDSeparator, i)
			}

			lastSeparator = true
		default:
			return fmt.Errorf("%w %q at position %d", ErrAccountIDInvalidChar, c, i)
		}
	}

	if lastSeparator {
		return fmt.Errorf("%w at the end", ErrAccountIDSeparator)
	}

	return nil
}

// IsSubAccountOf returns true if a is a direct sub-account of parent
func (a AccountID) IsSubAccountOf(parent AccountID) bool {
	prefix, ok := strings.CutSuffix(string(a), "."+string(parent))

	return ok && len(prefix) > 0 && !strings.Contains(prefix, ".")
}

// Parent returns the account a is a sub-account of, or false for a top-level account
func (a AccountID) Parent() (AccountID, bool) {
	idx := strings.IndexByte(string(a), '.')
	if idx < 0 {
		return "", false
	}

	return a[idx+1:], true
}

func (a AccountID) String() string {
	return string(a)
}
