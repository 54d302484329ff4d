package objstore

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3 struct {
	s3svc  *s3.Client
	bucket string
}

type S3Config struct {
	Type            string `json:"type"`
	Region          string `json:"region"`
	Bucket          string `json:"bucket"`
	AccessKeyID     string `json:"accessKeyID,omitempty"`
	SecretAccessKey string `json:"secretAccessKey,omitempty"`
	CustomEndpoint  string `json:"customEndpoint,omitempty"`
}

func NewS3(cfg S3Config) (*S3, error) {
	var configOpts []func(*config.LoadOptions) error

	if cfg.Region != "" {
		configOpts = append(configOpts, config.WithRegion(cfg.Region))
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		staticCreds := credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)
		configOpts = append(configOpts, config.WithCredentialsProvider(staticCreds))
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(), configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var client *s3.Client
	if cfg.CustomEndpoint != "" {
		client = s3.NewFromConfig(awsConfig, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.CustomEndpoint)
		})
	} else {
		client = s3.NewFromConfig(awsConfig)
	}

	return &S3{
		s3svc:  client,
		bucket: cfg.Bucket,
	}, nil
}

func (s *S3) GetObject(ctx context.Context, in GetObjectInput) (io.ReadCloser, error) {
	obj, err := s.s3svc.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(in.Key),
	})
	if err != nil {
		return nil, err
	}
	return obj.Body, nil
}

func (s *S3) PutObject(ctx context.Context, in PutObjectInput) error {
	uploader := manager.NewUploader(s.s3svc, func(u *manager.Uploader) {
		u.Concurrency = 5
		u.LeavePartsOnError = false
	})

	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(in.Key),
		Body:   in.Data,
	})
	return err
}
