// Package plaintext 將使用者輸入整理成純文字
package plaintext

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// Clean 移除所有 HTML 標籤後還原字元實體，並去掉前後空白
// 輸出不做任何跳脫，顯示時由呼叫端負責
func Clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
}
