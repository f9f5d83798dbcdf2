package api

import (
	"fmt"
	"net/url"
	"time"
)

type ServerConfig struct {
	CORS      CORSConfig
	Blob      BlobConfig
	DB        DBConfig
	Redis     RedisConfig
	Upload    UploadConfig
	DBTimeout time.Duration
}

type CORSConfig struct {
	// AllowOrigins 為空或包含 "*" 時允許所有來源
	AllowOrigins []string
}

type BlobDriver string

const (
	BlobDriverS3    BlobDriver = "s3"
	BlobDriverMinIO BlobDriver = "minio"
)

type BlobConfig struct {
	Driver BlobDriver
	S3     S3Config
	MinIO  MinIOConfig
}

type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	Region          string
	Bucket          string
	PublicBaseURL   string
}

type MinIOConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
}

// Bucket 回傳目前使用的 blob driver 的 bucket
func (c BlobConfig) Bucket() string {
	if c.Driver == BlobDriverMinIO {
		return c.MinIO.Bucket
	}
	return c.S3.Bucket
}

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string
	Schema   string
	// SSLMode 預設為 require，連線會加密但不驗證憑證
	SSLMode      string
	MaxOpenConns int
	AutoMigrate  bool
}

// DSN 組出 postgres 連線字串，沒有設定 schema 時沿用資料庫預設的 search_path
func (c DBConfig) DSN() string {
	query := url.Values{}
	if c.SSLMode != "" {
		query.Set("sslmode", c.SSLMode)
	}
	if c.Schema != "" {
		query.Set("search_path", c.Schema)
	}
	return (&url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Database,
		RawQuery: query.Encode(),
	}).String()
}

type RedisConfig struct {
	// Addr 為空時不啟用 orphan blob 的紀錄
	Addr     string
	Password string
	DB       int

	StreamKeys RedisStreamKeys
	Producer   RedisProducerConfig
}

type RedisProducerConfig struct {
	BufferSize int
	// MaxLen 是 stream 的近似最大長度，0 表示不裁切
	MaxLen       int64
	WriteTimeout time.Duration
}

type RedisStreamKeys struct {
	Orphans string
}

type UploadConfig struct {
	// MaxBytes 是單一檔案的大小上限
	MaxBytes int64
	// Timeout 是一次刊登所有檔案上傳的總時間
	Timeout time.Duration
}
