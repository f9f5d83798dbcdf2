package models

// PictureSubmission 代表送審中的圖片(url 資料表)
type PictureSubmission struct {
	ID             uint          `gorm:"column:id;primaryKey"`
	ItemPictureURL string        `gorm:"column:itempictureurl;type:text;not null"`
	Status         ListingStatus `gorm:"column:status;type:varchar(32);not null;index"`
}

// ListingSubmission 代表送審中的刊登(listing 資料表)
type ListingSubmission struct {
	ListingID uint          `gorm:"column:listingid;primaryKey"`
	Status    ListingStatus `gorm:"column:status;type:varchar(32);not null;index"`
}
