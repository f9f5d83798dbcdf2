// Package testdb 提供測試用的 in-memory SQLite 資料庫，並套用正式環境相同的模型與命名規則
package testdb

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"supplishare/models"
)

// New 建立一個獨立的 in-memory 資料庫並執行 AutoMigrate
// 只開放一條連線，讓 PRAGMA 與 in-memory 資料在整個測試中保持一致
func New(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		NamingStrategy: models.NewNamingStrategy(""),
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// SeedUser 建立一個使用者
func SeedUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{Email: email}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// SeedListing 建立一筆刊登與其圖片，imagecount 與圖片數量一致
func SeedListing(t *testing.T, db *gorm.DB, listing models.Listing, urls ...string) models.Listing {
	t.Helper()
	if listing.Status == "" {
		listing.Status = models.ListingStatusActive
	}
	listing.ImageCount = len(urls)
	for _, url := range urls {
		listing.Images = append(listing.Images, models.ImageURL{URL: url})
	}
	require.NoError(t, db.Create(&listing).Error)
	return listing
}
