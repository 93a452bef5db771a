package transfer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/raccreative/clawdrop/internal/syncerr"
)

// ScopedCredentials are the temporary object store credentials handed out
// by the control plane. They only grant access below Prefix in Bucket.
type ScopedCredentials struct {
	AccessKeyID     string    `json:"accessKeyId"`
	SecretAccessKey string    `json:"secretAccessKey"`
	SessionToken    string    `json:"sessionToken"`
	Expiration      time.Time `json:"expiration"`
	Bucket          string    `json:"bucket"`
	Prefix          string    `json:"prefix"`
	Region          string    `json:"region"`
}

// Expired reports whether the credentials are no longer usable at now.
// A zero Expiration never expires.
func (c ScopedCredentials) Expired(now time.Time) bool {
	return !c.Expiration.IsZero() && !now.Before(c.Expiration)
}

type ClientOptions struct {
	// Endpoint overrides the S3 endpoint and switches to path-style addressing.
	Endpoint   string
	HTTPClient *http.Client
	Now        func() time.Time
}

// NewS3Client builds an S3 client that signs with creds until they expire.
func NewS3Client(ctx context.Context, creds ScopedCredentials, opts ClientOptions) (*s3.Client, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if creds.Expired(now()) {
		return nil, expiredError(creds.Expiration)
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(creds.Region),
		config.WithCredentialsProvider(newExpiringProvider(creds, now)),
	}
	if opts.HTTPClient != nil {
		loadOpts = append(loadOpts, config.WithHTTPClient(opts.HTTPClient))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// expiringProvider hands out the static credentials with their expiry attached
// and refuses once they are past it.
type expiringProvider struct {
	static  credentials.StaticCredentialsProvider
	expires time.Time
	now     func() time.Time
}

func newExpiringProvider(creds ScopedCredentials, now func() time.Time) *expiringProvider {
	return &expiringProvider{
		static:  credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		expires: creds.Expiration,
		now:     now,
	}
}

func (p *expiringProvider) Retrieve(ctx context.Context) (aws.Credentials, error) {
	if !p.expires.IsZero() && !p.now().Before(p.expires) {
		return aws.Credentials{}, expiredError(p.expires)
	}
	c, err := p.static.Retrieve(ctx)
	if err != nil {
		return aws.Credentials{}, err
	}
	if !p.expires.IsZero() {
		c.CanExpire = true
		c.Expires = p.expires
	}
	return c, nil
}

func expiredError(at time.Time) error {
	return syncerr.Wrap(syncerr.ErrCredentialsExpired, "storage credentials",
		fmt.Errorf("expired at %s", at.Format(time.RFC3339)))
}

var _ aws.CredentialsProvider = (*expiringProvider)(nil)
