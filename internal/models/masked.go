package models

import "strings"

// maskFill replaces the middle of every masked value regardless of its
// original length, so the mask never leaks how long the account number is.
const maskFill = "****"

// MaskedAccount is an account or phone number that is safe to display and
// log. Raw destination accounts live only in the withdrawals table; every
// value that crosses the storage boundary outward is converted to this type.
type MaskedAccount string

// MaskAccount keeps the first 3 and last 4 characters of the raw value and
// replaces the middle with a fixed mask. Values too short to keep anything
// are masked entirely.
func MaskAccount(raw string) MaskedAccount {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if len(raw) <= 7 {
		return MaskedAccount(maskFill)
	}
	return MaskedAccount(raw[:3] + maskFill + raw[len(raw)-4:])
}

// MaskPhone masks a phone number with the same rule as account numbers
func MaskPhone(raw string) MaskedAccount {
	return MaskAccount(raw)
}

func (m MaskedAccount) String() string {
	return string(m)
}
