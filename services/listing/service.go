package listing

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// IBlobStore 定義了上傳圖片所需的 blob store 操作
type IBlobStore interface {
	Upload(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// IOrphanJournal 記錄已經上傳但沒有任何刊登引用的 blob
type IOrphanJournal interface {
	Publish(event OrphanedBlobs) error
}

// OrphanedBlobs 是寫入 orphan journal 的事件
type OrphanedBlobs struct {
	URLs       []string  `msgpack:"urls"`
	Email      string    `msgpack:"email"`
	Reason     string    `msgpack:"reason"`
	OccurredAt time.Time `msgpack:"occurred_at"`
}

type serviceOptions struct {
	logger            *slog.Logger
	journal           IOrphanJournal
	uploadTimeout     time.Duration
	dbTimeout         time.Duration
	uploadConcurrency int
}

type ServiceOption func(*serviceOptions)

// WithLogger 設置日誌記錄器
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// WithOrphanJournal 設置 orphan blob 的記錄器
func WithOrphanJournal(journal IOrphanJournal) ServiceOption {
	return func(o *serviceOptions) {
		o.journal = journal
	}
}

// WithUploadTimeout 設置一次刊登所有圖片上傳的總超時時間
func WithUploadTimeout(d time.Duration) ServiceOption {
	return func(o *serviceOptions) {
		o.uploadTimeout = d
	}
}

// WithDBTimeout 設置每次資料庫操作(含交易)的超時時間
func WithDBTimeout(d time.Duration) ServiceOption {
	return func(o *serviceOptions) {
		o.dbTimeout = d
	}
}

// WithUploadConcurrency 設置同一次刊登同時上傳的圖片數量
func WithUploadConcurrency(n int) ServiceOption {
	return func(o *serviceOptions) {
		o.uploadConcurrency = n
	}
}

// Service 負責刊登的建立、查詢與刪除
type Service struct {
	db      *gorm.DB
	blobs   IBlobStore
	logger  *slog.Logger
	options serviceOptions
}

func NewService(db *gorm.DB, blobs IBlobStore, opts ...ServiceOption) *Service {
	options := serviceOptions{
		logger:            slog.Default(),
		uploadTimeout:     time.Minute,
		dbTimeout:         10 * time.Second,
		uploadConcurrency: 4,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Service{
		db:      db,
		blobs:   blobs,
		logger:  options.logger.With(slog.String("caller", "ListingService")),
		options: options,
	}
}

func (s *Service) withDBTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.options.dbTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.options.dbTimeout)
}

// reportOrphans 記錄因後續失敗而沒有被任何刊登引用的 blob
// blob 不會被刪除，只會留下紀錄
func (s *Service) reportOrphans(email string, urls []string, cause error) {
	urls = lo.Compact(urls)
	if len(urls) == 0 {
		return
	}
	s.logger.Warn("Orphaned blobs left in blob store",
		slog.String("email", email),
		slog.Any("urls", urls),
		slog.Any("error", cause),
	)
	if s.options.journal == nil {
		return
	}
	event := OrphanedBlobs{
		URLs:       urls,
		Email:      email,
		Reason:     cause.Error(),
		OccurredAt: time.Now(),
	}
	if err := s.options.journal.Publish(event); err != nil {
		s.logger.Error("Fail to publish orphaned blobs", slog.Any("urls", urls), slog.Any("error", err))
	}
}
