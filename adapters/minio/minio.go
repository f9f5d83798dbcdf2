package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PutObjectAPI 是 Storage 需要的 MinIO 客戶端操作
type PutObjectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
}

// Storage 透過 MinIO 儲存圖片
type Storage struct {
	client         PutObjectAPI
	bucket         string
	publicEndpoint *url.URL
}

func NewFromConfig(config Config) (*Storage, error) {
	const op = "NewFromConfig"
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create MinIO client, endpoint=%s, err=%w", op, config.Endpoint, err)
	}
	// 沒有設定公開 URL 時使用 <endpoint>/<bucket>
	publicBaseURL := config.PublicBaseURL
	if publicBaseURL == "" {
		publicBaseURL = client.EndpointURL().JoinPath(config.Bucket).String()
	}
	return NewStorage(client, config.Bucket, publicBaseURL)
}

func NewStorage(client PutObjectAPI, bucket, publicBaseURL string) (*Storage, error) {
	const op = "NewStorage"
	if bucket == "" {
		return nil, fmt.Errorf("[%s] Bucket is required", op)
	}
	publicEndpoint, err := url.Parse(publicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to parse public base URL, err=%w", op, err)
	}
	return &Storage{client: client, bucket: bucket, publicEndpoint: publicEndpoint}, nil
}

// Upload 上傳檔案並回傳可公開存取的 URL
func (s *Storage) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	const op = "Upload"
	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("[%s] Fail to upload object to MinIO, bucket=%s, key=%s, err=%w", op, s.bucket, name, err)
	}
	uri := *s.publicEndpoint
	uri.Path = path.Join("/", uri.Path, name)
	return uri.String(), nil
}
