package api

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	internalMinio "supplishare/adapters/minio"
	redisAdapter "supplishare/adapters/redis"
	internalS3 "supplishare/adapters/s3"
	"supplishare/models"
	"supplishare/services/admin"
	"supplishare/services/item"
	"supplishare/services/listing"
)

type ServerImpl struct {
	listings    *listing.Service
	items       *item.Service
	admin       *admin.Service
	redisClient *redis.Client
	producer    redisAdapter.IProducer[listing.OrphanedBlobs]
	db          *gorm.DB
	logger      *slog.Logger

	config ServerConfig
}

func NewServer(config ServerConfig) (*ServerImpl, error) {
	const op = "NewServer"

	// 初始化 blob store
	blobs, err := newBlobStore(config.Blob)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create blob store, err=%w", op, err)
	}

	// 初始化資料庫連線
	db, err := gorm.Open(postgres.Open(config.DB.DSN()), &gorm.Config{
		TranslateError: true,
		NamingStrategy: models.NewNamingStrategy(config.DB.Schema),
	})
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to connect to database, err=%w", op, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to get database pool, err=%w", op, err)
	}
	if config.DB.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(config.DB.MaxOpenConns)
	}
	if config.DB.AutoMigrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			return nil, fmt.Errorf("[%s] Fail to migrate database, err=%w", op, err)
		}
	}

	// 初始化 Redis 連線，沒有設定時不記錄 orphan blob
	var (
		redisClient *redis.Client
		producer    redisAdapter.IProducer[listing.OrphanedBlobs]
	)
	if config.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		producer, err = newOrphanProducer(redisClient, config.Redis)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create orphan producer, err=%w", op, err)
		}
	}

	impl := newServerImpl(db, blobs, producer, config)
	impl.redisClient = redisClient
	return impl, nil
}

// newOrphanProducer 建立寫入 orphan blob stream 的 producer，未設定的選項沿用預設值
func newOrphanProducer(client *redis.Client, config RedisConfig) (*redisAdapter.Producer[listing.OrphanedBlobs], error) {
	opts := []redisAdapter.ProducerOption[listing.OrphanedBlobs]{
		redisAdapter.WithProducerLogger[listing.OrphanedBlobs](slog.Default()),
		redisAdapter.WithProducerMaxLen[listing.OrphanedBlobs](config.Producer.MaxLen),
	}
	if config.Producer.BufferSize > 0 {
		opts = append(opts, redisAdapter.WithProducerBufferSize[listing.OrphanedBlobs](config.Producer.BufferSize))
	}
	if config.Producer.WriteTimeout > 0 {
		opts = append(opts, redisAdapter.WithProducerWriteTimeout[listing.OrphanedBlobs](config.Producer.WriteTimeout))
	}
	return redisAdapter.NewProducer[listing.OrphanedBlobs](client, config.StreamKeys.Orphans, opts...)
}

func newBlobStore(config BlobConfig) (listing.IBlobStore, error) {
	switch config.Driver {
	case BlobDriverMinIO:
		return internalMinio.NewFromConfig(internalMinio.Config{
			Endpoint:      config.MinIO.Endpoint,
			AccessKey:     config.MinIO.AccessKey,
			SecretKey:     config.MinIO.SecretKey,
			Bucket:        config.MinIO.Bucket,
			UseSSL:        config.MinIO.UseSSL,
			PublicBaseURL: config.MinIO.PublicBaseURL,
		})
	case BlobDriverS3, "":
		return internalS3.NewFromConfig(context.Background(), internalS3.Config{
			Endpoint:        config.S3.Endpoint,
			Region:          config.S3.Region,
			Bucket:          config.S3.Bucket,
			PublicBaseURL:   config.S3.PublicBaseURL,
			AccessKeyID:     config.S3.AccessKeyID,
			SecretAccessKey: config.S3.SecretAccessKey,
		})
	}
	return nil, fmt.Errorf("unknown blob driver: %s", config.Driver)
}

// newServerImpl 以已經建立好的依賴組成 ServerImpl，producer 可以是 nil
func newServerImpl(db *gorm.DB, blobs listing.IBlobStore, producer redisAdapter.IProducer[listing.OrphanedBlobs], config ServerConfig) *ServerImpl {
	logger := slog.Default()
	listingOpts := []listing.ServiceOption{
		listing.WithLogger(logger),
		listing.WithUploadTimeout(config.Upload.Timeout),
		listing.WithDBTimeout(config.DBTimeout),
	}
	if producer != nil {
		listingOpts = append(listingOpts, listing.WithOrphanJournal(producer))
	}
	return &ServerImpl{
		listings: listing.NewService(db, blobs, listingOpts...),
		items:    item.NewService(db, item.WithLogger(logger), item.WithDBTimeout(config.DBTimeout)),
		admin:    admin.NewService(db, logger, config.DBTimeout),
		producer: producer,
		db:       db,
		logger:   logger.With(slog.String("caller", "ServerImpl")),
		config:   config,
	}
}

func (impl *ServerImpl) Start() {
	if impl.producer != nil {
		impl.producer.Start()
	}
}

func (impl *ServerImpl) Close() {
	// 先送出所有尚未寫入的 orphan 紀錄
	if impl.producer != nil {
		impl.producer.Close()
	}
	if impl.redisClient != nil {
		if err := impl.redisClient.Close(); err != nil {
			impl.logger.Warn("Fail to close redis client", slog.Any("error", err))
		}
	}
	if sqlDB, err := impl.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			impl.logger.Warn("Fail to close database", slog.Any("error", err))
		}
	}
}

// RegisterRoutes 註冊所有路由與中介層
func (impl *ServerImpl) RegisterRoutes(router *gin.Engine, enablePprof bool) {
	router.Use(cors.New(corsConfig(impl.config.CORS)))
	if enablePprof {
		pprof.Register(router)
	}

	// 刊登
	router.POST("/uploadimage", impl.PostUploadImage)
	router.GET("/api/listings", impl.GetListings)
	router.GET("/api/listings/postimages/:listingid", impl.GetListingImages)
	router.GET("/api/listings/sort/:field/:direction", impl.GetSortedListings)
	router.DELETE("/api/listings/delete", impl.DeleteListing)
	router.GET("/listing/:listingID/userID", impl.GetListingOwner)

	// 舊版物品
	router.GET("/items", impl.GetItems)
	router.POST("/items", impl.PostItem)
	router.GET("/items/sort/:field/:direction", impl.GetSortedItems)
	router.GET("/user-items/:userId", impl.GetUserItems)
	router.DELETE("/deletePost/:itemType", impl.DeletePost)
	router.DELETE("/deletePostById/:itemid", impl.DeletePostByID)
	router.GET("/getItemId/:itemType", impl.GetItemID)
	router.GET("/imageCount", impl.GetImageCount)

	// 管理
	router.GET("/items/images", impl.GetAcceptedImages)
	router.GET("/api/admin/user-count", impl.GetUserCount)
	router.GET("/api/admin/userData", impl.GetUserData)

	router.NoRoute(func(c *gin.Context) {
		writeErrorBody(c, 404, "not_found", "Route not found")
	})
}

func corsConfig(config CORSConfig) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "Cache-Control"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(config.AllowOrigins) == 0 || slices.Contains(config.AllowOrigins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = config.AllowOrigins
	}
	return cfg
}
