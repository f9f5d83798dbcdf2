// Package admin 提供管理介面使用的統計與審核資料
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"supplishare/apperror"
	"supplishare/models"
)

type Service struct {
	db        *gorm.DB
	logger    *slog.Logger
	dbTimeout time.Duration
}

func NewService(db *gorm.DB, logger *slog.Logger, dbTimeout time.Duration) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:        db,
		logger:    logger.With(slog.String("caller", "AdminService")),
		dbTimeout: dbTimeout,
	}
}

func (s *Service) dbContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.dbTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.dbTimeout)
}

func (s *Service) UserCount(ctx context.Context) (int64, error) {
	const op = "UserCount"
	ctx, cancel := s.dbContext(ctx)
	defer cancel()

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("[%s] Fail to count users, err=%w", op, apperror.Store("Failed to retrieve user count.", err))
	}
	return count, nil
}

func (s *Service) Users(ctx context.Context) ([]models.User, error) {
	const op = "Users"
	ctx, cancel := s.dbContext(ctx)
	defer cancel()

	users := []models.User{}
	if err := s.db.WithContext(ctx).Order("userid").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("[%s] Fail to list users, err=%w", op, apperror.Store("Failed to retrieve user data.", err))
	}
	return users, nil
}

// AcceptedImage 是一組審核通過的圖片與刊登
// 兩張表沒有關聯，只依照各自的順序配對，沒有對應的刊登時 ListingID 為 null
type AcceptedImage struct {
	ItemPictureURL string `json:"itempictureurl"`
	ListingID      *uint  `json:"listingid"`
}

// AcceptedImages 依照順序配對審核通過的圖片 URL 與刊登 ID
func (s *Service) AcceptedImages(ctx context.Context) ([]AcceptedImage, error) {
	const op = "AcceptedImages"
	ctx, cancel := s.dbContext(ctx)
	defer cancel()

	var urls []string
	err := s.db.WithContext(ctx).
		Model(&models.PictureSubmission{}).
		Where("status = ?", models.ListingStatusAccepted).
		Order("id").
		Pluck("itempictureurl", &urls).Error
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to list accepted pictures, err=%w", op, apperror.Store("Failed to retrieve image URLs and listing IDs.", err))
	}
	var listingIDs []uint
	err = s.db.WithContext(ctx).
		Model(&models.ListingSubmission{}).
		Where("status = ?", models.ListingStatusAccepted).
		Order("listingid").
		Pluck("listingid", &listingIDs).Error
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to list accepted listings, err=%w", op, apperror.Store("Failed to retrieve image URLs and listing IDs.", err))
	}
	if len(urls) != len(listingIDs) {
		s.logger.Warn("Accepted pictures and listings have different lengths",
			slog.Int("pictures", len(urls)),
			slog.Int("listings", len(listingIDs)),
		)
	}

	return lo.Map(urls, func(url string, i int) AcceptedImage {
		image := AcceptedImage{ItemPictureURL: url}
		if i < len(listingIDs) {
			image.ListingID = lo.ToPtr(listingIDs[i])
		}
		return image
	}), nil
}
