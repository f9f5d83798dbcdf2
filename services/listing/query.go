package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"supplishare/apperror"
	"supplishare/models"
	"supplishare/services/ordering"
)

// ListingView 是查詢刊登時回傳的資料
// Username 是擁有者的 email，擁有者不存在時為 null
type ListingView struct {
	ListingID    uint      `json:"listingid"`
	ListingName  string    `json:"listingname"`
	Description  string    `json:"description"`
	Zipcode      string    `json:"zipcode"`
	ItemCategory string    `json:"itemcategory"`
	Username     *string   `json:"username"`
	ImageURLs    []string  `json:"imageurls"`
	DatePosted   time.Time `json:"dateposted"`
}

// SortOptions 是刊登可以使用的排序欄位與方向
var SortOptions = ordering.Options{
	Fields: map[string]string{
		"dateposted":   "dateposted",
		"zipcode":      "zipcode",
		"itemcategory": "itemcategory",
	},
	Directions: map[string]bool{
		"asc":  false,
		"desc": true,
	},
}

func toListingView(listing models.Listing) ListingView {
	view := ListingView{
		ListingID:    listing.ListingID,
		ListingName:  listing.ListingName,
		Description:  listing.Description,
		Zipcode:      listing.Zipcode,
		ItemCategory: listing.ItemCategory,
		ImageURLs: lo.Map(listing.Images, func(image models.ImageURL, _ int) string {
			return image.URL
		}),
		DatePosted: listing.DatePosted,
	}
	if listing.User != nil {
		view.Username = lo.ToPtr(listing.User.Email)
	}
	return view
}

func preloadImages(db *gorm.DB) *gorm.DB {
	return db.Order("imageid")
}

// ListAll 取得所有擁有者存在的刊登與其圖片
func (s *Service) ListAll(ctx context.Context) ([]ListingView, error) {
	const op = "ListAll"
	ctx, cancel := s.withDBTimeout(ctx)
	defer cancel()

	var listings []models.Listing
	err := s.db.WithContext(ctx).
		InnerJoins("User").
		Preload("Images", preloadImages).
		Order("listingid").
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to list listings, err=%w", op, apperror.Store("Error fetching listings from the database.", err))
	}
	return lo.Map(listings, func(listing models.Listing, _ int) ListingView {
		return toListingView(listing)
	}), nil
}

// Images 取得一筆刊登的所有圖片 URL，沒有圖片時回傳空陣列
func (s *Service) Images(ctx context.Context, listingID uint) ([]string, error) {
	const op = "Images"
	ctx, cancel := s.withDBTimeout(ctx)
	defer cancel()

	urls := []string{}
	err := s.db.WithContext(ctx).
		Model(&models.ImageURL{}).
		Where("listingid = ?", listingID).
		Order("imageid").
		Pluck("imageurl", &urls).Error
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to get image urls, err=%w", op, apperror.Store("Error fetching images for listing.", err))
	}
	if urls == nil {
		urls = []string{}
	}
	return urls, nil
}

// Sorted 依照允許的欄位與方向排序刊登
// 擁有者不存在的刊登也會出現在結果中
func (s *Service) Sorted(ctx context.Context, field, direction string) ([]ListingView, error) {
	const op = "Sorted"
	order, ok := SortOptions.Parse(field, direction)
	if !ok {
		return nil, apperror.NotFound("sort order", field+"/"+direction)
	}
	ctx, cancel := s.withDBTimeout(ctx)
	defer cancel()

	var listings []models.Listing
	err := s.db.WithContext(ctx).
		Joins("User").
		Preload("Images", preloadImages).
		Clauses(order.Clause("listingid")).
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to list sorted listings, err=%w", op, apperror.Store("Error retrieving sorted items from the database.", err))
	}
	return lo.Map(listings, func(listing models.Listing, _ int) ListingView {
		return toListingView(listing)
	}), nil
}

// Owner 取得刊登擁有者的 userid
func (s *Service) Owner(ctx context.Context, listingID uint) (uint, error) {
	const op = "Owner"
	ctx, cancel := s.withDBTimeout(ctx)
	defer cancel()

	var listing models.Listing
	err := s.db.WithContext(ctx).
		Select("listingid", "userid").
		Where("listingid = ?", listingID).
		Take(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperror.NotFound("listing", strconv.FormatUint(uint64(listingID), 10))
		}
		return 0, fmt.Errorf("[%s] Fail to get listing owner, err=%w", op, apperror.Store("Error retrieving userID for the listing.", err))
	}
	return listing.UserID, nil
}

// Delete 在同一個交易內刪除刊登與其圖片紀錄，回傳刪除的刊登數量
// 刊登不存在時仍視為成功，blob store 中的圖片不會被刪除
func (s *Service) Delete(ctx context.Context, listingID uint) (int64, error) {
	const op = "Delete"
	ctx, cancel := s.withDBTimeout(ctx)
	defer cancel()

	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listingid = ?", listingID).Delete(&models.ImageURL{}).Error; err != nil {
			return fmt.Errorf("fail to delete image urls, err=%w", err)
		}
		result := tx.Where("listingid = ?", listingID).Delete(&models.Listing{})
		if result.Error != nil {
			return fmt.Errorf("fail to delete listing, err=%w", result.Error)
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("[%s] Fail to delete listing, err=%w", op, apperror.Transaction(err))
	}
	s.logger.Info("Listing deleted",
		slog.Uint64("listingID", uint64(listingID)),
		slog.Int64("rows", deleted),
	)
	return deleted, nil
}
