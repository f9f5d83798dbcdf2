package models

// Item 代表舊版的物品資料表(Items)
// ItemPictureURL 以逗號串接多個 URL，與使用者沒有關聯
type Item struct {
	ItemID         uint    `gorm:"column:itemid;primaryKey" json:"itemid"`
	ItemType       string  `gorm:"column:itemtype;type:varchar(255);not null;index" json:"itemtype"`
	Description    string  `gorm:"column:description;type:text" json:"description"`
	Zipcode        string  `gorm:"column:zipcode;type:varchar(16)" json:"zipcode"`
	ItemPictureURL *string `gorm:"column:itempictureurl;type:text" json:"itempictureurl"`
	ItemCategory   string  `gorm:"column:itemcategory;type:varchar(255)" json:"itemcategory"`
}

// ListItem 代表舊版依使用者分類的物品清單(ListItems)
type ListItem struct {
	ListItemID   uint   `gorm:"column:listitemid;primaryKey" json:"listitemid"`
	UserID       uint   `gorm:"column:userid;not null;index" json:"userid"`
	ItemName     string `gorm:"column:itemname;type:varchar(255)" json:"itemname"`
	Description  string `gorm:"column:description;type:text" json:"description"`
	Zipcode      string `gorm:"column:zipcode;type:varchar(16)" json:"zipcode"`
	ItemCategory string `gorm:"column:itemcategory;type:varchar(255)" json:"itemcategory"`
}
