package models

import "gorm.io/gorm/schema"

// tableNames 對應既有資料庫中的資料表名稱
var tableNames = map[string]string{
	"User":              "users",
	"Listing":           "listings",
	"ImageURL":          "imageurl",
	"Item":              "items",
	"ListItem":          "listitems",
	"PictureSubmission": "url",
	"ListingSubmission": "listing",
}

// NamingStrategy 在 gorm 預設命名規則之上套用既有的資料表名稱，
// 並保留 TablePrefix 作為 schema 前綴
type NamingStrategy struct {
	schema.NamingStrategy
}

func NewNamingStrategy(dbSchema string) NamingStrategy {
	var prefix string
	if dbSchema != "" {
		prefix = dbSchema + "."
	}
	return NamingStrategy{schema.NamingStrategy{TablePrefix: prefix}}
}

func (ns NamingStrategy) TableName(str string) string {
	if name, ok := tableNames[str]; ok {
		return ns.TablePrefix + name
	}
	return ns.NamingStrategy.TableName(str)
}

// All 回傳所有需要遷移的模型，順序符合外鍵相依
func All() []any {
	return []any{
		&User{},
		&Listing{},
		&ImageURL{},
		&Item{},
		&ListItem{},
		&PictureSubmission{},
		&ListingSubmission{},
	}
}
