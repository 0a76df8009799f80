package backupapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/backup"
	"github.com/aws/aws-sdk-go-v2/service/backup/types"
)

// ErrEmptyCopyJobID indicates that the service accepted a copy job without returning its id.
var ErrEmptyCopyJobID = errors.New("no copy job id in response")

// Lifecycle controls the storage transitions applied to a copied recovery
// point. A zero value disables the corresponding transition.
type Lifecycle struct {
	MoveToColdStorageAfterDays int64
	DeleteAfterDays            int64
}

// toServiceLifecycle builds the request lifecycle, omitting disabled
// transitions. Both disabled yields an empty lifecycle, meaning no
// transitions at all.
func (l Lifecycle) toServiceLifecycle() *types.Lifecycle {
	sl := &types.Lifecycle{}
	if l.MoveToColdStorageAfterDays > 0 {
		sl.MoveToColdStorageAfterDays = aws.Int64(l.MoveToColdStorageAfterDays)
	}
	if l.DeleteAfterDays > 0 {
		sl.DeleteAfterDays = aws.Int64(l.DeleteAfterDays)
	}
	return sl
}

// String implements fmt.Stringer, for log lines.
func (l Lifecycle) String() string {
	return fmt.Sprintf("cold_storage_after=%dd delete_after=%dd", l.MoveToColdStorageAfterDays, l.DeleteAfterDays)
}

// CopyRequest describes one copy of a recovery point into another vault.
type CopyRequest struct {
	RecoveryPointARN     string
	SourceVaultName      string
	DestinationVaultName string
	Lifecycle            Lifecycle
}

// StartCopyJob starts an asynchronous server-side copy of a recovery point
// into the destination vault and returns the copy job id. The job is not
// tracked further by this client.
func (c *Client) StartCopyJob(ctx context.Context, req *CopyRequest) (string, error) {
	out, err := c.backup.StartCopyJob(ctx, &backup.StartCopyJobInput{
		RecoveryPointArn:          aws.String(req.RecoveryPointARN),
		SourceBackupVaultName:     aws.String(req.SourceVaultName),
		DestinationBackupVaultArn: aws.String(c.VaultARN(req.DestinationVaultName)),
		IamRoleArn:                aws.String(c.roleARN),
		Lifecycle:                 req.Lifecycle.toServiceLifecycle(),
	})
	if err != nil {
		return "", fmt.Errorf("start copy job for %s: %w", req.RecoveryPointARN, err)
	}
	if out.CopyJobId == nil {
		return "", ErrEmptyCopyJobID
	}
	return aws.ToString(out.CopyJobId), nil
}
