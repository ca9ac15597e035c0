package s3

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"juris-backend/internal/shared/storage/object"
	"juris-backend/internal/shared/util"
)

// Client is the part of the S3 API used by Store.
type Client interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config selects the bucket holding uploaded documents and extraction artefacts.
type Config struct {
	Region   string
	Bucket   string
	Prefix   string
	KMSKeyID string
}

// Store keeps documents in S3 under <prefix>/<sha256(session)>/<random>_<name>.
type Store struct {
	client   Client
	bucket   string
	prefix   string
	kmsKeyID string
}

// New loads the default AWS credential chain and returns a Store for cfg.Bucket.
func New(ctx context.Context, cfg Config) (*Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region := strings.TrimSpace(cfg.Region); region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}
	return NewWithClient(s3.NewFromConfig(awsCfg), cfg)
}

// NewWithClient returns a Store backed by client.
func NewWithClient(client Client, cfg Config) (*Store, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	return &Store{
		client:   client,
		bucket:   bucket,
		prefix:   normalizePrefix(cfg.Prefix),
		kmsKeyID: strings.TrimSpace(cfg.KMSKeyID),
	}, nil
}

// Save uploads a document under the hashed session namespace.
// Uploads are capped upstream, so the body is buffered to give the SDK a seekable payload.
func (s *Store) Save(ctx context.Context, namespace string, fileName string, r io.Reader) (string, int64, string, error) {
	sanitizedName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", 0, "", errors.Wrap(err, "sanitize file name")
	}
	if err := ctx.Err(); err != nil {
		return "", 0, "", err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, "", errors.Wrap(err, "read upload")
	}
	mimeType := http.DetectContentType(data)

	finalName := strings.ReplaceAll(uuid.NewString(), "-", "") + "_" + sanitizedName
	storageKey := path.Join(util.HashKey(namespace), finalName)

	input := s.putInput(storageKey, mimeType, data)
	input.Metadata = map[string]string{"original-name": sanitizedName}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", 0, "", errors.Wrapf(err, "s3 put object bucket=%s key=%s", s.bucket, aws.ToString(input.Key))
	}
	return storageKey, int64(len(data)), mimeType, nil
}

// SaveWithKey uploads an artefact, such as extracted pages, at an exact key.
func (s *Store) SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, errors.Wrap(err, "read artefact")
	}
	if strings.TrimSpace(contentType) == "" {
		contentType = http.DetectContentType(data)
	}

	input := s.putInput(storageKey, contentType, data)
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return 0, errors.Wrapf(err, "s3 put object bucket=%s key=%s", s.bucket, aws.ToString(input.Key))
	}
	return int64(len(data)), nil
}

// Open downloads a stored object. NoSuchKey is marked with object.ErrNotFound.
func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	objectKey := applyPrefix(s.prefix, storageKey)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		err = errors.Wrapf(err, "s3 get object bucket=%s key=%s", s.bucket, objectKey)
		var missing *s3types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, errors.Mark(err, object.ErrNotFound)
		}
		return nil, err
	}
	return out.Body, nil
}

func (s *Store) putInput(storageKey, contentType string, data []byte) *s3.PutObjectInput {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(applyPrefix(s.prefix, storageKey)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	}
	s.applyEncryption(input)
	return input
}

func (s *Store) applyEncryption(input *s3.PutObjectInput) {
	if s.kmsKeyID != "" {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAwsKms
		input.SSEKMSKeyId = aws.String(s.kmsKeyID)
		return
	}
	input.ServerSideEncryption = s3types.ServerSideEncryptionAes256
}

func normalizePrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

func applyPrefix(prefix, key string) string {
	cleanPrefix := strings.Trim(prefix, "/")
	cleanKey := strings.TrimLeft(key, "/")
	if cleanPrefix == "" {
		return cleanKey
	}
	if cleanKey == "" {
		return cleanPrefix
	}
	return cleanPrefix + "/" + cleanKey
}

var _ object.ObjectStore = (*Store)(nil)
