package util

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MinAccountIDLen is the shortest valid NEAR account id.
	MinAccountIDLen = 2
	// MaxAccountIDLen is the longest valid NEAR account id.
	MaxAccountIDLen = 64
)

var (
	// ErrAccountIDLength is returned for account ids outside of
	// [MinAccountIDLen, MaxAccountIDLen].
	ErrAccountIDLength = errors.New("invalid account id length")
	// ErrAccountIDFormat is returned for account ids with forbidden characters
	// or misplaced separators.
	ErrAccountIDFormat = errors.New("invalid account id format")
)

// AccountID is a NEAR account name like "aurora" or "relay.aurora".
type AccountID string

// ParseAccountID validates s and returns it as an AccountID. Valid ids consist
// of lowercase alphanumeric parts separated by a single '-', '_' or '.', a
// separator can't start or end the id.
func ParseAccountID(s string) (AccountID, error) {
	if len(s) < MinAccountIDLen || len(s) > MaxAccountIDLen {
		return "", fmt.Errorf("%w: %q has %d characters", ErrAccountIDLength, s, len(s))
	}
	var prevSep = true
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			prevSep = false
		case c == '-' || c == '_' || c == '.':
			if prevSep {
				return "", fmt.Errorf("%w: %q", ErrAccountIDFormat, s)
			}
			prevSep = true
		default:
			return "", fmt.Errorf("%w: %q contains %q", ErrAccountIDFormat, s, c)
		}
	}
	if prevSep {
		return "", fmt.Errorf("%w: %q", ErrAccountIDFormat, s)
	}
	return AccountID(s), nil
}

// String implements the fmt.Stringer interface.
func (a AccountID) String() string {
	return string(a)
}

// IsSubAccountOf reports whether a is a direct or nested sub-account of
// parent ("x.aurora" is a sub-account of "aurora").
func (a AccountID) IsSubAccountOf(parent AccountID) bool {
	return strings.HasSuffix(string(a), "."+string(parent))
}

// IsImplicit reports whether a is an implicit account (64 hex characters
// derived from an ed25519 public key).
func (a AccountID) IsImplicit() bool {
	if len(a) != 64 {
		return false
	}
	for i := 0; i < len(a); i++ {
		c := a[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
