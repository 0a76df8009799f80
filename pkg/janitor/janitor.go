// Package janitor drives one lifecycle job run against a backup vault:
// it pulls recovery point pages, filters them through a policy and executes
// the resulting delete or copy actions one at a time.
package janitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/smithy-go"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/vaultops/backup-janitor/pkg/backupapi"
	"github.com/vaultops/backup-janitor/pkg/policy"
)

// BackupService is the vault capability consumed by a Runner.
type BackupService interface {
	ListRecoveryPoints(ctx context.Context, vaultName string, token *string) (*backupapi.RecoveryPointPage, error)
	DeleteRecoveryPoint(ctx context.Context, vaultName, recoveryPointARN string) error
	StartCopyJob(ctx context.Context, req *backupapi.CopyRequest) (string, error)
}

// Summary aggregates the outcomes of one run. Failed counts per-record action
// errors, which never fail the run itself.
type Summary struct {
	Scanned int `json:"scanned"`
	Matched int `json:"matched"`
	Acted   int `json:"acted"`
	Failed  int `json:"failed"`
}

func (s *Summary) fields() []zap.Field {
	return []zap.Field{
		zap.Int("scanned", s.Scanned),
		zap.Int("matched", s.Matched),
		zap.Int("acted", s.Acted),
		zap.Int("failed", s.Failed),
	}
}

// Runner executes lifecycle jobs against a backup service.
type Runner struct {
	service BackupService
	logger  *zap.Logger

	// now is stubbed in tests; one snapshot is taken per run.
	now func() time.Time
}

// New creates a Runner backed by the given service.
func New(service BackupService, logger *zap.Logger) *Runner {
	return &Runner{service: service, logger: logger, now: time.Now}
}

// Cleanup deletes every recovery point in the vault that completed before the
// retention cutoff. A failed delete is logged and skipped; a failed page
// fetch aborts the run.
func (r *Runner) Cleanup(ctx context.Context, cfg CleanupConfig) (*Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := r.now().UTC()
	pol := policy.NewRetentionPolicy(now, cfg.ExpiryDays)
	r.logger.Info("starting cleanup run",
		zap.String("vault", cfg.VaultName),
		zap.Int("expiry_days", cfg.ExpiryDays),
		zap.Time("cutoff", pol.Cutoff),
	)

	sum := &Summary{}
	err := r.eachRecoveryPoint(ctx, cfg.VaultName, func(rp backupapi.RecoveryPoint) {
		sum.Scanned++
		if !pol.Expired(rp) {
			return
		}
		sum.Matched++
		if err := r.service.DeleteRecoveryPoint(ctx, cfg.VaultName, rp.ARN); err != nil {
			sum.Failed++
			r.logger.Error("failed to delete recovery point", recordFields(rp, now, err)...)
			return
		}
		sum.Acted++
		r.logger.Info("deleted recovery point", recordFields(rp, now, nil)...)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("cleanup run finished", sum.fields()...)
	return sum, nil
}

// Copy starts a copy job for every recovery point matching the copy policy,
// applying the configured lifecycle to the copy. A failed copy is logged and
// skipped, same as a failed delete; a failed page fetch aborts the run.
func (r *Runner) Copy(ctx context.Context, cfg CopyConfig) (*Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := r.now().UTC()
	pol := policy.NewCopyPolicy(cfg.ResourceFilter)
	if cfg.FirstOfMonth {
		pol = policy.NewFirstOfMonthPolicy(now, cfg.ResourceFilter, cfg.LookbackYears)
	}
	lifecycle := backupapi.Lifecycle{
		MoveToColdStorageAfterDays: int64(cfg.MoveToColdStorageAfterDays),
		DeleteAfterDays:            int64(cfg.DeleteAfterDays),
	}
	r.logger.Info("starting copy run",
		zap.String("source_vault", cfg.SourceVaultName),
		zap.String("destination_vault", cfg.DestinationVaultName),
		zap.String("resource_filter", cfg.ResourceFilter),
		zap.Bool("first_of_month", cfg.FirstOfMonth),
		zap.Stringer("lifecycle", lifecycle),
	)

	sum := &Summary{}
	err := r.eachRecoveryPoint(ctx, cfg.SourceVaultName, func(rp backupapi.RecoveryPoint) {
		sum.Scanned++
		if !pol.Eligible(rp) {
			return
		}
		sum.Matched++
		jobID, err := r.service.StartCopyJob(ctx, &backupapi.CopyRequest{
			RecoveryPointARN:     rp.ARN,
			SourceVaultName:      cfg.SourceVaultName,
			DestinationVaultName: cfg.DestinationVaultName,
			Lifecycle:            lifecycle,
		})
		if err != nil {
			sum.Failed++
			r.logger.Error("failed to start copy job", recordFields(rp, now, err)...)
			return
		}
		sum.Acted++
		r.logger.Info("started copy job", append(recordFields(rp, now, nil),
			zap.String("copy_job_id", jobID),
			zap.Stringer("lifecycle", lifecycle),
		)...)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("copy run finished", sum.fields()...)
	return sum, nil
}

// eachRecoveryPoint walks the vault page by page until the continuation token
// runs out, calling fn for every record. A page fetch error aborts the walk;
// records already handed to fn stay handled.
func (r *Runner) eachRecoveryPoint(ctx context.Context, vaultName string, fn func(backupapi.RecoveryPoint)) error {
	var token *string
	for {
		page, err := r.service.ListRecoveryPoints(ctx, vaultName, token)
		if err != nil {
			return fmt.Errorf("enumerate vault %s: %w", vaultName, err)
		}
		r.logger.Debug("fetched recovery point page",
			zap.String("vault", vaultName),
			zap.Int("count", len(page.RecoveryPoints)),
			zap.Bool("has_more", page.NextToken != nil),
		)
		for _, rp := range page.RecoveryPoints {
			fn(rp)
		}
		if page.NextToken == nil {
			return nil
		}
		token = page.NextToken
	}
}

// recordFields builds the log context for one record outcome: identity, age
// and, for failures, the error with its service code when present.
func recordFields(rp backupapi.RecoveryPoint, now time.Time, err error) []zap.Field {
	fields := []zap.Field{
		zap.String("recovery_point", rp.ARN),
		zap.String("resource", rp.ResourceARN),
		zap.Time("completed_at", rp.CompletionTime),
		zap.String("age", humanize.RelTime(rp.CompletionTime, now, "old", "from now")),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			fields = append(fields, zap.String("error_code", apiErr.ErrorCode()))
		}
	}
	return fields
}
