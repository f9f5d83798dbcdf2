package main

import (
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"supplishare/api"
)

func ParseArgs() Args {
	// server config
	pflag.String("server-url", "0.0.0.0:8080", "")
	pflag.StringSlice("cors-allow-origins", []string{"*"}, "")
	pflag.Bool("enable-pprof", false, "")
	pflag.String("log-level", "info", "debug|info|warn|error")

	// blob config
	pflag.String("blob-driver", string(api.BlobDriverS3), "s3|minio")

	// s3 config
	pflag.String("s3-endpoint", "", "")
	pflag.String("s3-region", "auto", "")
	pflag.String("s3-bucket", "", "")
	pflag.String("s3-public-base-url", "", "")
	pflag.String("s3-access-key-id", "", "")
	pflag.String("s3-secret-access-key", "", "")

	// minio config
	pflag.String("minio-endpoint", "", "")
	pflag.String("minio-access-key", "", "")
	pflag.String("minio-secret-key", "", "")
	pflag.String("minio-bucket", "", "")
	pflag.Bool("minio-use-ssl", true, "")
	pflag.String("minio-public-base-url", "", "")

	// db config
	pflag.String("db-user", "", "")
	pflag.String("db-password", "", "")
	pflag.String("db-host", "", "")
	pflag.Int("db-port", 5432, "")
	pflag.String("db-database", "", "")
	pflag.String("db-schema", "supplishare", "")
	pflag.String("db-sslmode", "require", "")
	pflag.Int("db-max-open-conns", 10, "")
	pflag.Bool("db-auto-migrate", false, "")
	pflag.Duration("db-timeout", 10*time.Second, "")

	// redis config
	pflag.String("redis-addr", "", "")
	pflag.String("redis-password", "", "")
	pflag.Int("redis-db", 15, "")

	// redis stream keys
	pflag.String("redis-stream-key-for-orphans", "supplishare-orphaned-blobs", "")

	// redis producer config
	pflag.Int("redis-producer-buffer-size", 100, "")
	pflag.Int64("redis-producer-max-len", 100000, "0 means no trimming")
	pflag.Duration("redis-producer-write-timeout", 5*time.Second, "")

	// upload config
	pflag.Int64("upload-max-bytes", 5<<20, "")
	pflag.Duration("upload-timeout", time.Minute, "")

	// bind pflag to viper
	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvPrefix("SUPPLISHARE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// initial arguments
	return Args{
		ServerURL:   viper.GetString("server-url"),
		EnablePprof: viper.GetBool("enable-pprof"),
		LogLevel:    viper.GetString("log-level"),
		ServerConfig: api.ServerConfig{
			CORS: api.CORSConfig{
				AllowOrigins: viper.GetStringSlice("cors-allow-origins"),
			},
			Blob: api.BlobConfig{
				Driver: api.BlobDriver(viper.GetString("blob-driver")),
				S3: api.S3Config{
					Endpoint:        viper.GetString("s3-endpoint"),
					Region:          viper.GetString("s3-region"),
					Bucket:          viper.GetString("s3-bucket"),
					PublicBaseURL:   viper.GetString("s3-public-base-url"),
					AccessKeyID:     viper.GetString("s3-access-key-id"),
					SecretAccessKey: viper.GetString("s3-secret-access-key"),
				},
				MinIO: api.MinIOConfig{
					Endpoint:      viper.GetString("minio-endpoint"),
					AccessKey:     viper.GetString("minio-access-key"),
					SecretKey:     viper.GetString("minio-secret-key"),
					Bucket:        viper.GetString("minio-bucket"),
					UseSSL:        viper.GetBool("minio-use-ssl"),
					PublicBaseURL: viper.GetString("minio-public-base-url"),
				},
			},
			DB: api.DBConfig{
				User:         viper.GetString("db-user"),
				Password:     viper.GetString("db-password"),
				Host:         viper.GetString("db-host"),
				Port:         viper.GetInt("db-port"),
				Database:     viper.GetString("db-database"),
				Schema:       viper.GetString("db-schema"),
				SSLMode:      viper.GetString("db-sslmode"),
				MaxOpenConns: viper.GetInt("db-max-open-conns"),
				AutoMigrate:  viper.GetBool("db-auto-migrate"),
			},
			Redis: api.RedisConfig{
				Addr:     viper.GetString("redis-addr"),
				Password: viper.GetString("redis-password"),
				DB:       viper.GetInt("redis-db"),
				StreamKeys: api.RedisStreamKeys{
					Orphans: viper.GetString("redis-stream-key-for-orphans"),
				},
				Producer: api.RedisProducerConfig{
					BufferSize:   viper.GetInt("redis-producer-buffer-size"),
					MaxLen:       viper.GetInt64("redis-producer-max-len"),
					WriteTimeout: viper.GetDuration("redis-producer-write-timeout"),
				},
			},
			Upload: api.UploadConfig{
				MaxBytes: viper.GetInt64("upload-max-bytes"),
				Timeout:  viper.GetDuration("upload-timeout"),
			},
			DBTimeout: viper.GetDuration("db-timeout"),
		},
	}
}

type Args struct {
	ServerURL    string
	EnablePprof  bool
	LogLevel     string
	ServerConfig api.ServerConfig
}

func (args Args) Validate() bool {
	blob := args.ServerConfig.Blob
	if blob.Driver != api.BlobDriverS3 && blob.Driver != api.BlobDriverMinIO {
		return false
	}
	// S3 的物件 URL 只能由 public base URL 組出
	if blob.Driver == api.BlobDriverS3 && blob.S3.PublicBaseURL == "" {
		return false
	}
	return args.ServerURL != "" &&
		args.ServerConfig.DB.Host != "" &&
		args.ServerConfig.DB.Database != "" &&
		blob.Bucket() != ""
}

// Level 將 log-level 轉為 slog.Level，無法辨識時使用 Info
func (args Args) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(args.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
