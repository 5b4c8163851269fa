package writer

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"powerposition/config"
	"powerposition/logger"
)

// Uploader mirrors a finished report somewhere outside the local folder.
type Uploader interface {
	Upload(ctx context.Context, localPath, name string) (string, error)
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader copies reports to s3://bucket/prefix/<name>.
type S3Uploader struct {
	client putObjectAPI
	bucket string
	prefix string
	log    *logger.Entry
}

// NewS3Uploader loads AWS configuration with optional static credentials and
// builds an S3 client honouring a custom endpoint and path-style addressing.
func NewS3Uploader(ctx context.Context, cfg config.S3Config, log *logger.Log) (*S3Uploader, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return newS3Uploader(client, cfg.Bucket, cfg.Prefix, log), nil
}

func newS3Uploader(client putObjectAPI, bucket, prefix string, log *logger.Log) *S3Uploader {
	u := &S3Uploader{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		log:    log.WithComponent("s3_uploader"),
	}
	u.log.WithFields(logger.Fields{"bucket": bucket, "prefix": u.prefix}).Debug("s3 uploader initialized")
	return u
}

func (u *S3Uploader) key(name string) string {
	if u.prefix == "" {
		return name
	}
	return path.Join(u.prefix, name)
}

func (u *S3Uploader) Upload(ctx context.Context, localPath, name string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	key := u.key(name)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", u.bucket, key, err)
	}
	uri := fmt.Sprintf("s3://%s/%s", u.bucket, key)
	u.log.WithFields(logger.Fields{"uri": uri}).Info("report uploaded")
	return uri, nil
}
