package transfer

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/raccreative/clawdrop/internal/syncerr"
)

// ObjectStore is the subset of the S3 API a push needs.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var _ ObjectStore = (*s3.Client)(nil)

// ChecksumSHA256 converts a hex digest from the index into the base64 form
// S3 expects in x-amz-checksum-sha256.
func ChecksumSHA256(hexDigest string) (string, error) {
	raw, err := hex.DecodeString(hexDigest)
	if err != nil {
		return "", fmt.Errorf("invalid sha256 digest %q: %w", hexDigest, err)
	}
	if len(raw) != sha256.Size {
		return "", fmt.Errorf("invalid sha256 digest %q: %d bytes", hexDigest, len(raw))
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// storeError tags an object store failure with the kind a user can act on.
func storeError(op string, err error) error {
	if errors.Is(err, syncerr.ErrCredentialsExpired) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ExpiredToken", "TokenRefreshRequired", "RequestExpired":
			return syncerr.Wrap(syncerr.ErrCredentialsExpired, op, err)
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch", "InvalidToken":
			return syncerr.Wrap(syncerr.ErrUnauthorized, op, err)
		}
	}
	return syncerr.Network(op, err)
}
