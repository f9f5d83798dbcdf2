package models

import "time"

type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "Active"
	ListingStatusAccepted ListingStatus = "Accepted"
)

// Listing 代表使用者刊登的物品
// ImageCount 是 ImageURL 筆數的快取值，只能在同一個交易內以 COUNT(*) 重新計算，不可遞增維護
type Listing struct {
	ListingID    uint          `gorm:"column:listingid;primaryKey"`
	ListingName  string        `gorm:"column:listingname;type:varchar(255);not null"`
	Description  string        `gorm:"column:description;type:text;not null"`
	Zipcode      string        `gorm:"column:zipcode;type:varchar(16);not null"`
	ItemCategory string        `gorm:"column:itemcategory;type:varchar(255);not null"`
	Status       ListingStatus `gorm:"column:status;type:varchar(32);not null;default:'Active'"`
	UserID       uint          `gorm:"column:userid;not null;index"`
	ImageCount   int           `gorm:"column:imagecount;not null;default:0"`
	DatePosted   time.Time     `gorm:"column:dateposted;not null;autoCreateTime"`

	// 外鍵關聯，listings.userid 的約束由 User.Listings 建立
	User   *User      `gorm:"foreignKey:UserID;references:UserID;constraint:-"`
	Images []ImageURL `gorm:"foreignKey:ListingID;references:ListingID"`
}
