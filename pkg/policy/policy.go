// Package policy holds the pure eligibility predicates deciding which
// recovery points a job acts on. Policies carry their full configuration,
// including the "now" snapshot taken at run start, so evaluation has no
// hidden time dependency.
package policy

import (
	"strings"
	"time"

	"github.com/vaultops/backup-janitor/pkg/backupapi"
)

// DefaultLookbackYears is the calendar window checked by first-of-month policies.
const DefaultLookbackYears = 5

// RetentionPolicy marks recovery points older than a cutoff for deletion.
type RetentionPolicy struct {
	Cutoff time.Time
}

// NewRetentionPolicy derives the cutoff from the run's "now" snapshot minus
// expiryDays. With expiryDays 0 the cutoff is now itself, so every completed
// recovery point is expired.
func NewRetentionPolicy(now time.Time, expiryDays int) RetentionPolicy {
	return RetentionPolicy{Cutoff: now.UTC().AddDate(0, 0, -expiryDays)}
}

// Expired reports whether the recovery point completed strictly before the cutoff.
func (p RetentionPolicy) Expired(rp backupapi.RecoveryPoint) bool {
	return rp.CompletionTime.Before(p.Cutoff)
}

// CopyPolicy selects recovery points to copy into another vault.
type CopyPolicy struct {
	ResourceFilter string

	// firstDays is the set of eligible completion dates; nil disables
	// calendar filtering.
	firstDays map[time.Time]struct{}
}

// NewCopyPolicy builds a policy matching every recovery point whose resource
// ARN contains resourceFilter.
func NewCopyPolicy(resourceFilter string) CopyPolicy {
	return CopyPolicy{ResourceFilter: resourceFilter}
}

// NewFirstOfMonthPolicy builds a copy policy which additionally requires the
// completion date (time-of-day ignored) to be the first day of some month
// within lookbackYears years of now.
func NewFirstOfMonthPolicy(now time.Time, resourceFilter string, lookbackYears int) CopyPolicy {
	if lookbackYears <= 0 {
		lookbackYears = DefaultLookbackYears
	}
	days := make(map[time.Time]struct{}, lookbackYears*12)
	for k := 0; k < lookbackYears; k++ {
		year := now.UTC().Year() - k
		for m := time.January; m <= time.December; m++ {
			days[time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)] = struct{}{}
		}
	}
	return CopyPolicy{ResourceFilter: resourceFilter, firstDays: days}
}

// Eligible reports whether the recovery point passes both the resource filter
// and, when enabled, the calendar filter. Both checks are independent.
func (p CopyPolicy) Eligible(rp backupapi.RecoveryPoint) bool {
	if !strings.Contains(rp.ResourceARN, p.ResourceFilter) {
		return false
	}
	if p.firstDays == nil {
		return true
	}
	t := rp.CompletionTime.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	_, ok := p.firstDays[day]
	return ok
}
