// Package item 處理舊版的 Items 與 ListItems 資料表
// 舊版資料表沒有交易需求，也沒有和使用者建立外鍵
package item

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"supplishare/apperror"
	"supplishare/models"
	"supplishare/services/ordering"
	"supplishare/services/plaintext"
)

// SortOptions 是舊版物品可以使用的排序欄位與方向
var SortOptions = ordering.Options{
	Fields: map[string]string{
		"zipcode":      "zipcode",
		"itemcategory": "itemcategory",
	},
	Directions: map[string]bool{
		"ascending":  false,
		"descending": true,
	},
}

type serviceOptions struct {
	logger    *slog.Logger
	dbTimeout time.Duration
}

type ServiceOption func(*serviceOptions)

// WithLogger 設置日誌記錄器
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// WithDBTimeout 設置每次資料庫操作的超時時間
func WithDBTimeout(d time.Duration) ServiceOption {
	return func(o *serviceOptions) {
		o.dbTimeout = d
	}
}

type Service struct {
	db      *gorm.DB
	logger  *slog.Logger
	options serviceOptions
}

func NewService(db *gorm.DB, opts ...ServiceOption) *Service {
	options := serviceOptions{
		logger:    slog.Default(),
		dbTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Service{
		db:      db,
		logger:  options.logger.With(slog.String("caller", "ItemService")),
		options: options,
	}
}

func (s *Service) dbContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.options.dbTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.options.dbTimeout)
}

type CreateItemRequest struct {
	ItemType     string   `json:"itemtype"`
	Description  string   `json:"description"`
	Zipcode      string   `json:"zipcode"`
	ItemCategory string   `json:"itemcategory"`
	BlobURLs     []string `json:"bloburls"`
}

// JoinPictureURLs 去掉每個 URL 前後殘留的 {、} 與引號後以逗號串接
// 沒有任何 URL 時回傳 nil
func JoinPictureURLs(urls []string) *string {
	cleaned := lo.FilterMap(urls, func(url string, _ int) (string, bool) {
		url = strings.Trim(strings.TrimSpace(url), `{}"`)
		return url, url != ""
	})
	if len(cleaned) == 0 {
		return nil
	}
	return lo.ToPtr(strings.Join(cleaned, ","))
}

// Create 新增一筆舊版物品，只整理這一筆的圖片欄位
func (s *Service) Create(ctx context.Context, req CreateItemRequest) (*models.Item, error) {
	const op = "Create"
	item := models.Item{
		ItemType:       plaintext.Clean(req.ItemType),
		Description:    plaintext.Clean(req.Description),
		Zipcode:        strings.TrimSpace(req.Zipcode),
		ItemCategory:   strings.TrimSpace(req.ItemCategory),
		ItemPictureURL: JoinPictureURLs(req.BlobURLs),
	}
	if item.ItemType == "" {
		return nil, apperror.Validation("itemtype is required.")
	}

	ctx, cancel := s.dbContext(ctx)
	defer cancel()
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, fmt.Errorf("[%s] Fail to create item, err=%w", op, apperror.Store("Error during database insertion.", err))
	}
	return &item, nil
}

// DeleteByType 刪除所有符合 itemType 的物品，回傳刪除的筆數
func (s *Service) DeleteByType(ctx context.Context, itemType string) (int64, error) {
	const op = "DeleteByType"
	ctx, cancel := s.dbContext(ctx)
	defer cancel()

	result := s.db.WithContext(ctx).Where("itemtype = ?", itemType).Delete(&models.Item{})
	if result.Error != nil {
		return 0, fmt.Errorf("[%s] Fail to delete items, err=%w", op, apperror.Store("Failed to delete post.", result.Error))
	}
	s.logger.Info("Items deleted", slog.String("itemType", itemType), slog.Int64("rows", result.RowsAffected))
	return result.RowsAffected, nil
}

// DeleteByID 刪除一筆物品，itemID 必須是數字
func (s *Service) DeleteByID(ctx context.Context, itemID string) (int64, error) {
	const op = "DeleteByID"
	id, err := strconv.ParseUint(strings.TrimSpace(itemID), 10, 64)
	if err != nil {
		return 0, apperror.Validation(fmt.Sprintf("Invalid itemId: %q", itemID))
	}
	ctx, cancel := s.dbContext(ctx)
	defer cancel()

	result := s.db.WithContext(ctx).Where("itemid = ?", id).Delete(&models.Item{})
	if result.Error != nil {
		return 0, fmt.Errorf("[%s] Fail to delete item, err=%w", op, apperror.Store("Failed to delete post.", result.Error))
	}
	s.logger.Info("Item deleted", slog.Uint64("itemID", id), slog.Int64("rows", result.RowsAffected))
	return result.RowsAffected, nil
}

func (s *Service) List(ctx context.Context) ([]models.Item, error) {
	const op = "List"
	ctx, cancel := s.dbContext(ctx)
	defer cancel()

	items := []models.Item{}
	if err := s.db.WithContext(ctx).Order("itemid").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("[%s] Fail to list items, err=%w", op, apperror.Store("Error retrieving items from the database.", err))
	}
	return items, nil
}

// ListSorted 依照允許的欄位與方向排序，其他組合回傳 NotFound
func (s *Service) ListSorted(ctx context.Context, field, direction string) ([]models.Item, error) {
	const op = "ListSorted"
	order, ok := SortOptions.Parse(field, direction)
	if !ok {
		return nil, apperror.NotFound("sort order", field+"/"+direction)
	}
	ctx, cancel := s.dbContext(ctx)
	defer cancel()

	items := []models.Item{}
	if err := s.db.WithContext(ctx).Clauses(order.Clause("itemid")).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("[%s] Fail to list sorted items, err=%w", op, apperror.Store("Error retrieving sorted items from the database.", err))
	}
	return items, nil
}

// IDByType 回傳第一筆符合 itemType 的 itemid
func (s *Service) IDByType(ctx context.Context, itemType string) (uint, error) {
	const op = "IDByType"
	ctx, cancel := s.dbContext(ctx)
	defer cancel()

	var item models.Item
	err := s.db.WithContext(ctx).
		Select("itemid").
		Where("itemtype = ?", itemType).
		Order("itemid").
		Take(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperror.NotFound("item", itemType)
		}
		return 0, fmt.Errorf("[%s] Fail to get item id, err=%w", op, apperror.Store("Failed to retrieve item ID.", err))
	}
	return item.ItemID, nil
}

// CountWithPictures 計算圖片欄位不是 NULL 的物品數量
func (s *Service) CountWithPictures(ctx context.Context) (int64, error) {
	const op = "CountWithPictures"
	ctx, cancel := s.dbContext(ctx)
	defer cancel()

	var count int64
	err := s.db.WithContext(ctx).Model(&models.Item{}).Where("itempictureurl IS NOT NULL").Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("[%s] Fail to count items, err=%w", op, apperror.Store("Failed to retrieve image count.", err))
	}
	return count, nil
}

// ListByUser 取得使用者在 ListItems 的所有物品
func (s *Service) ListByUser(ctx context.Context, userID uint) ([]models.ListItem, error) {
	const op = "ListByUser"
	ctx, cancel := s.dbContext(ctx)
	defer cancel()

	items := []models.ListItem{}
	err := s.db.WithContext(ctx).Where("userid = ?", userID).Order("listitemid").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to list user items, err=%w", op, apperror.Store("Error retrieving items for the user.", err))
	}
	return items, nil
}
