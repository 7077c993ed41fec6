package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	mb "github.com/saeidalz13/battleship-arena/models/battleship"
)

const DefaultS3Key = "game_archive.json"

// S3API is the part of the s3 client the store needs.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Config struct {
	Bucket          string
	Key             string
	Region          string
	Endpoint        string
	AccessKeyId     string
	SecretAccessKey string
}

// S3Store keeps the archive as one JSON array object, the same layout
// as FileStore. Appends from this process are serialized; concurrent
// writers from other processes are not coordinated.
type S3Store struct {
	client S3API
	bucket string
	key    string
	mu     sync.Mutex
}

var _ Store = (*S3Store)(nil)

func NewS3Store(client S3API, bucket, key string) *S3Store {
	if key == "" {
		key = DefaultS3Key
	}
	return &S3Store{client: client, bucket: bucket, key: key}
}

// NewS3Client builds a client from cfg. Static credentials and a custom
// endpoint are optional; without them the default AWS chain is used.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyId != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyId, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (s *S3Store) Append(ctx context.Context, rec mb.ArchiveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read(ctx)
	if err != nil {
		return err
	}
	records = append(records, rec)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload archive: %w", err)
	}
	return nil
}

func (s *S3Store) List(ctx context.Context) ([]mb.ArchiveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

func (s *S3Store) read(ctx context.Context) ([]mb.ArchiveRecord, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		if isMissingObject(err) {
			return []mb.ArchiveRecord{}, nil
		}
		return nil, fmt.Errorf("failed to download archive: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []mb.ArchiveRecord{}, nil
	}

	var records []mb.ArchiveRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("archive object is not a json array: %w", err)
	}
	if records == nil {
		records = []mb.ArchiveRecord{}
	}
	return records, nil
}

func isMissingObject(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	// Some S3 compatible stores answer with a bare NotFound.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
