package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	internalS3 "supplishare/adapters/s3"
	"supplishare/apperror"
	"supplishare/models"
	"supplishare/services/plaintext"
)

// UploadFile 是一個已經讀入記憶體的上傳檔案
type UploadFile struct {
	Filename string
	Data     []byte
}

type CreateListingRequest struct {
	Email        string
	Title        string
	Description  string
	Zipcode      string
	ItemCategory string
	Files        []UploadFile
}

// Listing 是建立刊登成功後的結果
type Listing struct {
	ListingID    uint     `json:"listingid"`
	ListingName  string   `json:"listingname"`
	Description  string   `json:"description"`
	Zipcode      string   `json:"zipcode"`
	ItemCategory string   `json:"itemcategory"`
	UserID       uint     `json:"userid"`
	ImageCount   int      `json:"imagecount"`
	ImageURLs    []string `json:"imageurls"`
}

type classifiedImage struct {
	filename string
	mimeType string
	ext      string
	data     []byte
}

func (req CreateListingRequest) trimmed() CreateListingRequest {
	req.Email = strings.TrimSpace(req.Email)
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Zipcode = strings.TrimSpace(req.Zipcode)
	req.ItemCategory = strings.TrimSpace(req.ItemCategory)
	return req
}

func (req CreateListingRequest) validate() error {
	if req.Title == "" || req.Description == "" || req.Zipcode == "" || req.ItemCategory == "" || req.Email == "" {
		return apperror.Validation("Title, description, zip, itemcategory, and email are required.")
	}
	if len(req.Files) == 0 {
		return apperror.Validation("No files uploaded.")
	}
	return nil
}

// CreateListing 建立一筆刊登
//  1. 檢查欄位與檔案類型，失敗時不會碰到任何外部儲存
//  2. 平行上傳所有圖片，URL 順序與輸入檔案順序一致
//  3. 在同一個交易內寫入刊登、圖片，並以 COUNT(*) 重新計算 imagecount
//
// 交易失敗時已上傳的 blob 不會被刪除，只會記錄為 orphan
func (s *Service) CreateListing(ctx context.Context, req CreateListingRequest) (*Listing, error) {
	const op = "CreateListing"
	req = req.trimmed()
	if err := req.validate(); err != nil {
		return nil, err
	}
	images, err := classifyImages(req.Files)
	if err != nil {
		return nil, err
	}
	// 標題與描述只保存純文字
	req.Title = plaintext.Clean(req.Title)
	req.Description = plaintext.Clean(req.Description)
	if req.Title == "" || req.Description == "" {
		return nil, apperror.Validation("Title and description must contain text.")
	}

	urls, err := s.uploadAll(ctx, images)
	if err != nil {
		s.reportOrphans(req.Email, urls, err)
		return nil, fmt.Errorf("[%s] Fail to upload images, err=%w", op, apperror.Store("Error during file upload.", err))
	}

	listing, err := s.insertListing(ctx, req, urls)
	if err != nil {
		s.reportOrphans(req.Email, urls, err)
		return nil, fmt.Errorf("[%s] Fail to insert listing, err=%w", op, err)
	}
	s.logger.Info("Listing created",
		slog.Uint64("listingID", uint64(listing.ListingID)),
		slog.Int("imageCount", listing.ImageCount),
	)
	return listing, nil
}

func classifyImages(files []UploadFile) ([]classifiedImage, error) {
	images := make([]classifiedImage, len(files))
	for i, file := range files {
		mimeType, ext, ok := internalS3.ClassifyImage(file.Filename, file.Data)
		if !ok {
			return nil, apperror.InvalidFileType(file.Filename, mimeType)
		}
		images[i] = classifiedImage{
			filename: file.Filename,
			mimeType: mimeType,
			ext:      ext,
			data:     file.Data,
		}
	}
	return images, nil
}

// uploadAll 平行上傳所有圖片；失敗時仍回傳已成功上傳的 URL(其餘為空字串)
func (s *Service) uploadAll(ctx context.Context, images []classifiedImage) ([]string, error) {
	if s.options.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.options.uploadTimeout)
		defer cancel()
	}
	urls := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)
	if s.options.uploadConcurrency > 0 {
		g.SetLimit(s.options.uploadConcurrency)
	}
	for i, image := range images {
		i, image := i, image
		g.Go(func() error {
			url, err := s.blobs.Upload(gctx, newBlobName(image.ext), image.mimeType, image.data)
			if err != nil {
				return fmt.Errorf("file=%s, err=%w", image.filename, err)
			}
			urls[i] = url
			return nil
		})
	}
	return urls, g.Wait()
}

func (s *Service) insertListing(ctx context.Context, req CreateListingRequest, urls []string) (*Listing, error) {
	ctx, cancel := s.withDBTimeout(ctx)
	defer cancel()

	listing := models.Listing{
		ListingName:  req.Title,
		Description:  req.Description,
		Zipcode:      req.Zipcode,
		ItemCategory: req.ItemCategory,
		Status:       models.ListingStatusActive,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 以 email 取得 userid
		var user models.User
		if err := tx.Where("email = ?", req.Email).Take(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("user", req.Email)
			}
			return fmt.Errorf("fail to find user, err=%w", err)
		}
		listing.UserID = user.UserID
		if err := tx.Create(&listing).Error; err != nil {
			return fmt.Errorf("fail to create listing, err=%w", err)
		}
		images := lo.Map(urls, func(url string, _ int) models.ImageURL {
			return models.ImageURL{ListingID: listing.ListingID, URL: url}
		})
		if err := tx.Create(&images).Error; err != nil {
			return fmt.Errorf("fail to create image urls, err=%w", err)
		}
		// imagecount 一律以實際的圖片筆數重新計算
		var count int64
		if err := tx.Model(&models.ImageURL{}).Where("listingid = ?", listing.ListingID).Count(&count).Error; err != nil {
			return fmt.Errorf("fail to count image urls, err=%w", err)
		}
		if err := tx.Model(&listing).Update("imagecount", count).Error; err != nil {
			return fmt.Errorf("fail to update image count, err=%w", err)
		}
		listing.ImageCount = int(count)
		return nil
	})
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, apperror.Transaction(err)
	}
	return &Listing{
		ListingID:    listing.ListingID,
		ListingName:  listing.ListingName,
		Description:  listing.Description,
		Zipcode:      listing.Zipcode,
		ItemCategory: listing.ItemCategory,
		UserID:       listing.UserID,
		ImageCount:   listing.ImageCount,
		ImageURLs:    urls,
	}, nil
}

// newBlobName 產生 "<毫秒時間戳>-<隨機字串>.<副檔名>" 格式的名稱
func newBlobName(ext string) string {
	return fmt.Sprintf("%d-%s.%s", time.Now().UnixMilli(), uuid.NewString()[:8], ext)
}
