package models

// ImageURL 代表刊登物品的一張圖片
// 只保存 blob store 回傳的公開 URL，刪除刊登時不會刪除 blob 本身
type ImageURL struct {
	ImageID   uint   `gorm:"column:imageid;primaryKey"`
	ListingID uint   `gorm:"column:listingid;not null;index"`
	URL       string `gorm:"column:imageurl;type:text;not null"`
}
