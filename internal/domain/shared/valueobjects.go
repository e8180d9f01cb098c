// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID represents a unique user identifier (UUID format).
type UserID string

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the user ID is a valid UUID.
func (u UserID) IsValid() bool {
	return uuidRegex.MatchString(string(u))
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// IsEmpty checks if the ID is empty.
func (u UserID) IsEmpty() bool {
	return u == ""
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	uid := UserID(strings.ToLower(strings.TrimSpace(id)))
	if !uid.IsValid() {
		return "", NewDomainError("shared", "NewUserID", ErrInvalidID, "invalid user ID format")
	}
	return uid, nil
}

// GenerateUserID generates a fresh random UserID.
func GenerateUserID() UserID {
	return UserID(uuid.NewString())
}

// NewEntityID generates a fresh UUID for any aggregate.
func NewEntityID() string {
	return uuid.NewString()
}

// ═══════════════════════════════════════════════════════════════════════════
// Money Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Money represents an amount in whole currency units (monthly rent scale,
// so cents are not tracked).
type Money int

const (
	// MinMoney is the smallest representable amount.
	MinMoney Money = 0

	// MaxMoney caps budgets to catch fat-fingered input.
	MaxMoney Money = 100000
)

// IsValid checks if the amount is within the representable range.
func (m Money) IsValid() bool {
	return m >= MinMoney && m <= MaxMoney
}

// Int returns the underlying int value.
func (m Money) Int() int {
	return int(m)
}

// String returns the string representation.
func (m Money) String() string {
	return fmt.Sprintf("%d", int(m))
}

// NewMoney creates a new Money value with validation.
func NewMoney(amount int) (Money, error) {
	m := Money(amount)
	if !m.IsValid() {
		return 0, NewDomainError("shared", "NewMoney", ErrValueOutOfRange, "amount out of range")
	}
	return m, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// ClockTime Value Object
// ═══════════════════════════════════════════════════════════════════════════

// ClockTime represents a time of day as minutes since midnight (0-1439).
type ClockTime int

// MinutesPerDay is the number of minutes in a day.
const MinutesPerDay = 24 * 60

// IsValid checks if the clock time is within a single day.
func (c ClockTime) IsValid() bool {
	return c >= 0 && c < MinutesPerDay
}

// Minutes returns the underlying minute count.
func (c ClockTime) Minutes() int {
	return int(c)
}

// String returns the "HH:MM" representation.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// NewClockTime creates a ClockTime from hour and minute components.
func NewClockTime(hour, minute int) (ClockTime, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, NewDomainError("shared", "NewClockTime", ErrValueOutOfRange, "clock time out of range")
	}
	return ClockTime(hour*60 + minute), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Score Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Score represents a compatibility score (0-100).
type Score int

// IsValid checks the score range.
func (s Score) IsValid() bool {
	return s >= 0 && s <= 100
}

// Int returns the underlying int value.
func (s Score) Int() int {
	return int(s)
}

// Clamp forces the score into the valid range.
func (s Score) Clamp() Score {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
