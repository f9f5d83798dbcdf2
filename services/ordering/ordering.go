// Package ordering 把路由上的排序欄位與方向轉成 gorm 的 ORDER BY 子句。
// 只接受事先列舉的欄位，使用者輸入永遠不會被拼接進 SQL。
package ordering

import "gorm.io/gorm/clause"

// Options 定義一組可以使用的排序欄位與方向
type Options struct {
	// Fields 將路由上的欄位名稱對應到資料表欄位
	Fields map[string]string
	// Directions 將路由上的方向名稱對應到是否為遞減
	Directions map[string]bool
}

// Order 是已經通過驗證的排序條件
type Order struct {
	Column string
	Desc   bool
}

// Parse 驗證欄位與方向，不在允許清單時 ok 為 false
func (o Options) Parse(field, direction string) (order Order, ok bool) {
	column, ok := o.Fields[field]
	if !ok {
		return Order{}, false
	}
	desc, ok := o.Directions[direction]
	if !ok {
		return Order{}, false
	}
	return Order{Column: column, Desc: desc}, true
}

// Clause 回傳主資料表上的排序子句，tieBreaker 用於相同值時維持穩定順序
func (o Order) Clause(tieBreaker string) clause.OrderBy {
	columns := []clause.OrderByColumn{
		{Column: clause.Column{Table: clause.CurrentTable, Name: o.Column}, Desc: o.Desc},
	}
	if tieBreaker != "" && tieBreaker != o.Column {
		columns = append(columns, clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: tieBreaker}})
	}
	return clause.OrderBy{Columns: columns}
}
