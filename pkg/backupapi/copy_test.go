package backupapi

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/backup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle_toServiceLifecycle(t *testing.T) {
	tests := []struct {
		name      string
		lifecycle Lifecycle
		wantCold  *int64
		wantDel   *int64
	}{
		{"both disabled", Lifecycle{}, nil, nil},
		{"expiry only", Lifecycle{DeleteAfterDays: 120}, nil, aws.Int64(120)},
		{"cold storage only", Lifecycle{MoveToColdStorageAfterDays: 30}, aws.Int64(30), nil},
		{"both set", Lifecycle{MoveToColdStorageAfterDays: 30, DeleteAfterDays: 120}, aws.Int64(30), aws.Int64(120)},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			sl := tc.lifecycle.toServiceLifecycle()
			require.NotNil(t, sl)
			assert.Equal(t, tc.wantCold, sl.MoveToColdStorageAfterDays)
			assert.Equal(t, tc.wantDel, sl.DeleteAfterDays)
		})
	}
}

func TestClient_StartCopyJob(t *testing.T) {
	svc := &fakeBackupService{
		copyFn: func(params *backup.StartCopyJobInput) (*backup.StartCopyJobOutput, error) {
			assert.Equal(t, "arn:rp-1", aws.ToString(params.RecoveryPointArn))
			assert.Equal(t, "prod-vault", aws.ToString(params.SourceBackupVaultName))
			assert.Equal(t, "arn:aws:backup:ap-southeast-1:123456789012:backup-vault:archive-vault", aws.ToString(params.DestinationBackupVaultArn))
			assert.Equal(t, "arn:aws:iam::123456789012:role/service-role/AWSBackupDefaultServiceRole", aws.ToString(params.IamRoleArn))
			require.NotNil(t, params.Lifecycle)
			assert.Nil(t, params.Lifecycle.MoveToColdStorageAfterDays)
			assert.EqualValues(t, 120, aws.ToInt64(params.Lifecycle.DeleteAfterDays))
			return &backup.StartCopyJobOutput{CopyJobId: aws.String("copy-job-1")}, nil
		},
	}

	c := newTestClient(t, svc, WithRoleARN("arn:aws:iam::123456789012:role/service-role/AWSBackupDefaultServiceRole"))
	jobID, err := c.StartCopyJob(context.Background(), &CopyRequest{
		RecoveryPointARN:     "arn:rp-1",
		SourceVaultName:      "prod-vault",
		DestinationVaultName: "archive-vault",
		Lifecycle:            Lifecycle{DeleteAfterDays: 120},
	})
	require.NoError(t, err)
	assert.Equal(t, "copy-job-1", jobID)
}

func TestClient_StartCopyJob_Error(t *testing.T) {
	svc := &fakeBackupService{
		copyFn: func(params *backup.StartCopyJobInput) (*backup.StartCopyJobOutput, error) {
			return nil, errors.New("InvalidParameterValueException: Delete after days cannot be less than transition to cold after days")
		},
	}

	c := newTestClient(t, svc)
	_, err := c.StartCopyJob(context.Background(), &CopyRequest{
		RecoveryPointARN:     "arn:rp-1",
		SourceVaultName:      "prod-vault",
		DestinationVaultName: "archive-vault",
		Lifecycle:            Lifecycle{MoveToColdStorageAfterDays: 180, DeleteAfterDays: 120},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arn:rp-1")
}

func TestClient_StartCopyJob_EmptyJobID(t *testing.T) {
	svc := &fakeBackupService{
		copyFn: func(params *backup.StartCopyJobInput) (*backup.StartCopyJobOutput, error) {
			return &backup.StartCopyJobOutput{}, nil
		},
	}

	c := newTestClient(t, svc)
	_, err := c.StartCopyJob(context.Background(), &CopyRequest{
		RecoveryPointARN:     "arn:rp-1",
		SourceVaultName:      "prod-vault",
		DestinationVaultName: "archive-vault",
	})
	require.ErrorIs(t, err, ErrEmptyCopyJobID)
}
