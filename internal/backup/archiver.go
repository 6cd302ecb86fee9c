package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/golang/snappy"
)

// ErrNoBucket is returned when the archive is used without a bucket.
var ErrNoBucket = errors.New("backup bucket is not configured")

// ObjectPutter is the part of the S3 client the archiver needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Options locates the bucket receiving archives.
type S3Options struct {
	Bucket       string
	Region       string
	Endpoint     string
	Prefix       string
	UsePathStyle bool
}

// NewS3Client builds an S3 client from the default AWS credential chain.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if opts.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		})
	}
	if opts.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, s3Opts...), nil
}

// Archiver uploads compressed snapshots of the stream files.
type Archiver struct {
	logger *slog.Logger
	client ObjectPutter
	dir    string
	bucket string
	prefix string
	now    func() time.Time
}

// NewArchiver returns an Archiver uploading the files in dir.
func NewArchiver(logger *slog.Logger, client ObjectPutter, dir string, opts S3Options) (*Archiver, error) {
	if opts.Bucket == "" {
		return nil, ErrNoBucket
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{
		logger: logger.With("component", "backup_archiver"),
		client: client,
		dir:    dir,
		bucket: opts.Bucket,
		prefix: strings.Trim(opts.Prefix, "/"),
		now:    time.Now,
	}, nil
}

// Upload compresses every stream file and stores it under
// prefix/YYYY-MM-DD/<stream>.jsonl.sz. It returns the object keys written.
func (a *Archiver) Upload(ctx context.Context) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(a.dir, "*"+FileExt))
	if err != nil {
		return nil, fmt.Errorf("failed to list backup files: %w", err)
	}

	day := a.now().UTC().Format(time.DateOnly)
	var keys []string
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return keys, err
		}

		raw, err := os.ReadFile(file)
		if err != nil {
			return keys, fmt.Errorf("failed to read %s: %w", file, err)
		}
		if len(raw) == 0 {
			continue
		}

		key := path.Join(a.prefix, day, filepath.Base(file)+".sz")
		_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(a.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(snappy.Encode(nil, raw)),
		})
		if err != nil {
			return keys, fmt.Errorf("failed to upload %s: %w", key, err)
		}
		a.logger.InfoContext(ctx, "Uploaded backup", "key", key, "bytes", len(raw))
		keys = append(keys, key)
	}
	return keys, nil
}

// Decode reverses the compression applied by Upload.
func Decode(r io.Reader) ([]byte, error) {
	compressed, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return snappy.Decode(nil, compressed)
}
