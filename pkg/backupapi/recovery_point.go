package backupapi

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/backup"
	"go.uber.org/zap"
)

// maxPageSize is the service-imposed cap on one recovery point listing page.
const maxPageSize = 100

// RecoveryPoint identifies one restorable snapshot in a backup vault.
type RecoveryPoint struct {
	ARN            string
	ResourceARN    string
	CompletionTime time.Time
}

// RecoveryPointPage is one page of a vault listing. A nil NextToken signals
// the end of the listing.
type RecoveryPointPage struct {
	RecoveryPoints []RecoveryPoint
	NextToken      *string
}

// ListRecoveryPoints fetches one page of recovery points from the given vault.
// Pass the previous page's NextToken to continue; nil starts from the
// beginning of the vault's current recovery point set.
func (c *Client) ListRecoveryPoints(ctx context.Context, vaultName string, token *string) (*RecoveryPointPage, error) {
	out, err := c.backup.ListRecoveryPointsByBackupVault(ctx, &backup.ListRecoveryPointsByBackupVaultInput{
		BackupVaultName: aws.String(vaultName),
		MaxResults:      aws.Int32(maxPageSize),
		NextToken:       token,
	})
	if err != nil {
		return nil, fmt.Errorf("list recovery points in vault %s: %w", vaultName, err)
	}

	page := &RecoveryPointPage{
		RecoveryPoints: make([]RecoveryPoint, 0, len(out.RecoveryPoints)),
		NextToken:      out.NextToken,
	}
	for _, rp := range out.RecoveryPoints {
		// A recovery point still being created has no completion time yet;
		// the zero value would look infinitely old to age-based policies.
		if rp.CompletionDate == nil {
			c.logger.Info("skipping recovery point without completion time",
				zap.String("recovery_point", aws.ToString(rp.RecoveryPointArn)))
			continue
		}
		page.RecoveryPoints = append(page.RecoveryPoints, RecoveryPoint{
			ARN:            aws.ToString(rp.RecoveryPointArn),
			ResourceARN:    aws.ToString(rp.ResourceArn),
			CompletionTime: rp.CompletionDate.UTC(),
		})
	}
	return page, nil
}

// DeleteRecoveryPoint removes a single recovery point from the vault.
func (c *Client) DeleteRecoveryPoint(ctx context.Context, vaultName, recoveryPointARN string) error {
	_, err := c.backup.DeleteRecoveryPoint(ctx, &backup.DeleteRecoveryPointInput{
		BackupVaultName:  aws.String(vaultName),
		RecoveryPointArn: aws.String(recoveryPointARN),
	})
	if err != nil {
		return fmt.Errorf("delete recovery point %s: %w", recoveryPointARN, err)
	}
	return nil
}
