package s3

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI 是 S3Operator 需要的 S3 客戶端操作
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Operator struct {
	// Client 是 S3 客戶端。
	Client PutObjectAPI
	// Bucket 是 S3 存儲桶的名稱。
	Bucket string
	// PublicEndpoint 是 S3 存儲桶的公開 Endpoint。
	PublicEndpoint *url.URL
}

type Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	PublicBaseURL   string
	AccessKeyID     string
	SecretAccessKey string
}

// NewFromConfig 以靜態憑證建立 S3 客戶端與 S3Operator
func NewFromConfig(ctx context.Context, config Config) (*S3Operator, error) {
	const op = "NewFromConfig"
	region := config.Region
	if region == "" {
		region = "auto"
	}
	cfg, err := awsCfg.LoadDefaultConfig(
		ctx,
		awsCfg.WithBaseEndpoint(config.Endpoint),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, "")),
		awsCfg.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to load AWS config, err=%w", op, err)
	}
	return NewS3Operator(s3.NewFromConfig(cfg), config.Bucket, config.PublicBaseURL)
}

func NewS3Operator(client PutObjectAPI, bucket, publicBaseURL string) (*S3Operator, error) {
	const op = "NewS3Operator"
	if bucket == "" {
		return nil, fmt.Errorf("[%s] Bucket is required", op)
	}
	publicEndpoint, err := url.Parse(publicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to parse public base URL, err=%w", op, err)
	}
	if !publicEndpoint.IsAbs() || publicEndpoint.Host == "" {
		return nil, fmt.Errorf("[%s] Public base URL must be absolute, url=%s", op, publicBaseURL)
	}
	return &S3Operator{Client: client, Bucket: bucket, PublicEndpoint: publicEndpoint}, nil
}

// Upload 上傳檔案並回傳可公開存取的 URL
func (s *S3Operator) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	const op = "Upload"
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(name),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("[%s] Fail to upload file to S3, key=%s, err=%w", op, name, err)
	}
	return s.PublicURL(name), nil
}

func (s *S3Operator) PublicURL(name string) string {
	uri := *s.PublicEndpoint
	uri.Path = path.Join("/", uri.Path, name)
	return uri.String()
}
