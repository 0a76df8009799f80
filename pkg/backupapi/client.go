package backupapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/backup"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/cenkalti/backoff/v3"

	"go.uber.org/zap"
)

const (
	defaultServiceRole = "service-role/AWSBackupDefaultServiceRole"

	// maxResolveTime bounds the retries around caller identity resolution at startup.
	maxResolveTime = 30 * time.Second
)

// BackupService is the subset of the AWS Backup API used by Client.
type BackupService interface {
	ListRecoveryPointsByBackupVault(ctx context.Context, params *backup.ListRecoveryPointsByBackupVaultInput, optFns ...func(*backup.Options)) (*backup.ListRecoveryPointsByBackupVaultOutput, error)
	DeleteRecoveryPoint(ctx context.Context, params *backup.DeleteRecoveryPointInput, optFns ...func(*backup.Options)) (*backup.DeleteRecoveryPointOutput, error)
	StartCopyJob(ctx context.Context, params *backup.StartCopyJobInput, optFns ...func(*backup.Options)) (*backup.StartCopyJobOutput, error)
}

// IdentityService is the subset of the STS API used to resolve the caller account.
type IdentityService interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Client is the client for interacting with the AWS Backup service.
type Client struct {
	backup BackupService
	sts    IdentityService

	region    string
	accountID string
	roleARN   string

	accessKey string
	secretKey string

	logger *zap.Logger
}

// NewClient creates a Client with given options.
//
// Unless both service clients are injected, the default AWS config chain is
// loaded, and the caller account is resolved through STS before the client is
// usable.
func NewClient(ctx context.Context, opts ...ClientOption) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.logger == nil {
		c.logger = NewLog()
	}

	if c.backup == nil || c.sts == nil {
		var cfgOpts []func(*awsconfig.LoadOptions) error
		if c.region != "" {
			cfgOpts = append(cfgOpts, awsconfig.WithRegion(c.region))
		}
		if c.accessKey != "" || c.secretKey != "" {
			cfgOpts = append(cfgOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(c.accessKey, c.secretKey, "")))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, cfgOpts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		if c.region == "" {
			c.region = cfg.Region
		}
		if c.backup == nil {
			c.backup = backup.NewFromConfig(cfg)
		}
		if c.sts == nil {
			c.sts = sts.NewFromConfig(cfg)
		}
	}

	if c.accountID == "" {
		if err := c.resolveAccountID(ctx); err != nil {
			return nil, err
		}
	}
	if c.roleARN == "" {
		c.roleARN = fmt.Sprintf("arn:aws:iam::%s:role/%s", c.accountID, defaultServiceRole)
	}

	return c, nil
}

// ClientOption provides mechanism to configure Client.
type ClientOption func(c *Client) error

// WithRegion sets the AWS region for Client.
func WithRegion(region string) ClientOption {
	return func(c *Client) error {
		c.region = region
		return nil
	}
}

// WithAccountID sets the AWS account id for Client, skipping STS resolution.
func WithAccountID(accountID string) ClientOption {
	return func(c *Client) error {
		c.accountID = accountID
		return nil
	}
}

// WithRoleARN sets the IAM role ARN passed to copy jobs.
func WithRoleARN(roleARN string) ClientOption {
	return func(c *Client) error {
		c.roleARN = roleARN
		return nil
	}
}

// WithStaticCredentials sets a fixed access/secret key pair for Client.
func WithStaticCredentials(accessKey, secretKey string) ClientOption {
	return func(c *Client) error {
		c.accessKey = accessKey
		c.secretKey = secretKey
		return nil
	}
}

// WithBackupService sets the underlying Backup service client for Client.
func WithBackupService(svc BackupService) ClientOption {
	return func(c *Client) error {
		if svc == nil {
			return errors.New("nil backup service")
		}
		c.backup = svc
		return nil
	}
}

// WithIdentityService sets the underlying STS client for Client.
func WithIdentityService(svc IdentityService) ClientOption {
	return func(c *Client) error {
		if svc == nil {
			return errors.New("nil identity service")
		}
		c.sts = svc
		return nil
	}
}

// WithLogger sets the logger for Client.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// resolveAccountID asks STS for the caller account. The call happens once at
// startup, so transient failures are retried with exponential backoff.
func (c *Client) resolveAccountID(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxResolveTime

	var out *sts.GetCallerIdentityOutput
	op := func() error {
		var err error
		out, err = c.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
		return err
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return fmt.Errorf("resolve caller identity: %w", err)
	}
	c.accountID = aws.ToString(out.Account)
	c.logger.Debug("resolved caller identity", zap.String("account_id", c.accountID))
	return nil
}

// Region returns the AWS region the client operates in.
func (c *Client) Region() string {
	return c.region
}

// AccountID returns the resolved AWS account id.
func (c *Client) AccountID() string {
	return c.accountID
}

// RoleARN returns the IAM role ARN passed to copy jobs.
func (c *Client) RoleARN() string {
	return c.roleARN
}

// VaultARN computes the ARN of a backup vault in the client's region and account.
func (c *Client) VaultARN(vaultName string) string {
	return fmt.Sprintf("arn:aws:backup:%s:%s:backup-vault:%s", c.region, c.accountID, vaultName)
}
