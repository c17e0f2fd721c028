// Package expiry holds the one deterministic expiry classification shared by
// the validator override, the re-validation pass, and the notification sweep.
package expiry

import (
	"fmt"
	"time"

	"github.com/kyc-compliance/kyc-intake/internal/common"
)

// DateLayout is the ISO date form IDs carry their expiry in.
const DateLayout = "2006-01-02"

// SoonWindowDays is the inclusive look-ahead window for "expiring soon".
const SoonWindowDays = 30

// State classifies an expiry date relative to a reference day.
type State int

const (
	Valid State = iota
	ExpiringSoon
	Expired
)

func (s State) String() string {
	switch s {
	case Expired:
		return "expired"
	case ExpiringSoon:
		return "expiring_soon"
	default:
		return "valid"
	}
}

// Classification is the outcome of relating an expiry date to a day.
type Classification struct {
	State State
	Days  int // days until expiry; negative once expired
	Date  time.Time
}

// Classify parses an ISO expiry date and relates it to today using
// calendar-day arithmetic; times of day and zones are ignored.
func Classify(idExpiry string, today time.Time) (Classification, error) {
	d, err := time.Parse(DateLayout, idExpiry)
	if err != nil {
		return Classification{}, fmt.Errorf("expiry date %q: %w", idExpiry, common.ErrDateParse)
	}
	ref := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	days := int(d.Sub(ref) / (24 * time.Hour))

	c := Classification{Days: days, Date: d}
	switch {
	case days < 0:
		c.State = Expired
	case days <= SoonWindowDays:
		c.State = ExpiringSoon
	default:
		c.State = Valid
	}
	return c, nil
}

// ExpiredFlag is the canonical diagnostic for an expired ID. The exact
// wording matters: flag insertion is deduplicated by string equality.
func ExpiredFlag(daysExpired int, idExpiry string) string {
	return fmt.Sprintf("ID expired %d days ago on %s", daysExpired, idExpiry)
}

// ExpiringFlag is the canonical diagnostic for an ID inside the warning window.
func ExpiringFlag(daysRemaining int) string {
	return fmt.Sprintf("ID expires in %d days", daysRemaining)
}

// RejectionNotice is the prefix prepended to a compliance report when the
// deterministic override rejects an expired ID.
func RejectionNotice(daysExpired int) string {
	return fmt.Sprintf("REJECTED: ID expired %d days ago. ", daysExpired)
}
