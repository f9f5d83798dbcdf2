package models

// User 代表市集的使用者
// 使用者由外部系統建立，這裡只用 email 反查 userid
type User struct {
	UserID uint   `gorm:"column:userid;primaryKey" json:"userid"`
	Email  string `gorm:"column:email;type:varchar(255);not null;uniqueIndex" json:"email"`

	// 外鍵 listings.userid 由這裡宣告
	Listings []Listing `gorm:"foreignKey:UserID;references:UserID" json:"-"`
}
