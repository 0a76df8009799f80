package janitor

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyVaultName indicates a job configured without a vault.
	ErrEmptyVaultName = errors.New("vault name is empty")
	// ErrNegativeDays indicates a negative day threshold.
	ErrNegativeDays = errors.New("day count must not be negative")
)

// CleanupConfig is the immutable configuration of one cleanup run.
type CleanupConfig struct {
	VaultName  string
	ExpiryDays int
}

// Validate fails fast on configuration errors, before any enumeration starts.
func (c CleanupConfig) Validate() error {
	if c.VaultName == "" {
		return fmt.Errorf("vault_name: %w", ErrEmptyVaultName)
	}
	if c.ExpiryDays < 0 {
		return fmt.Errorf("expiry_days: %w", ErrNegativeDays)
	}
	return nil
}

// CopyConfig is the immutable configuration of one copy run.
//
// MoveToColdStorageAfterDays and DeleteAfterDays of 0 disable the respective
// lifecycle transition. DeleteAfterDays below MoveToColdStorageAfterDays is
// not checked here; the service rejects such copies and the rejection
// surfaces as a per-record action error.
type CopyConfig struct {
	SourceVaultName            string
	DestinationVaultName       string
	ResourceFilter             string
	MoveToColdStorageAfterDays int
	DeleteAfterDays            int

	// FirstOfMonth restricts copies to recovery points completed on the
	// first day of a month within LookbackYears.
	FirstOfMonth  bool
	LookbackYears int
}

// Validate fails fast on configuration errors, before any enumeration starts.
func (c CopyConfig) Validate() error {
	if c.SourceVaultName == "" {
		return fmt.Errorf("source_vault_name: %w", ErrEmptyVaultName)
	}
	if c.DestinationVaultName == "" {
		return fmt.Errorf("destination_vault_name: %w", ErrEmptyVaultName)
	}
	if c.MoveToColdStorageAfterDays < 0 {
		return fmt.Errorf("cold_storage_after_days: %w", ErrNegativeDays)
	}
	if c.DeleteAfterDays < 0 {
		return fmt.Errorf("delete_after_days: %w", ErrNegativeDays)
	}
	if c.LookbackYears < 0 {
		return fmt.Errorf("lookback_years: %w", ErrNegativeDays)
	}
	return nil
}
