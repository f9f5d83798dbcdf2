package s3

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// SecureMIMETypesExtension 定義了允許上傳的安全圖片類型及其對應的副檔名
var SecureMIMETypesExtension = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/bmp":  "bmp",
	"image/tiff": "tiff",
	"image/webp": "webp",
}

// imageExtensions 定義了檔名副檔名對應的 MIME 類型
var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
}

// CheckSecureImageAndGetExtension 檢查給定的 MIME 類型是否為允許的圖片類型，並返回對應的副檔名
func CheckSecureImageAndGetExtension(mimeType string) (bool, string) {
	ext, ok := SecureMIMETypesExtension[mimeType]
	return ok, ext
}

// MIMETypeByFilename 依照檔名副檔名判斷 MIME 類型，無法判斷時返回空字串
func MIMETypeByFilename(filename string) string {
	return imageExtensions[strings.ToLower(filepath.Ext(filename))]
}

// ClassifyImage 同時檢查檔名與檔案內容：
//  1. 副檔名必須是圖片類型
//  2. 由內容偵測到的 MIME 類型必須在 SecureMIMETypesExtension 之中
//
// 返回內容偵測到的 MIME 類型與對應的副檔名；不合法時 ok 為 false，
// mimeType 為判斷失敗時看到的類型
func ClassifyImage(filename string, content []byte) (mimeType, ext string, ok bool) {
	byName := MIMETypeByFilename(filename)
	if byName == "" {
		return filepath.Ext(filename), "", false
	}
	detected := mimetype.Detect(content).String()
	// mimetype 可能帶有參數，例如 "text/plain; charset=utf-8"
	if i := strings.IndexByte(detected, ';'); i >= 0 {
		detected = detected[:i]
	}
	ok, ext = CheckSecureImageAndGetExtension(detected)
	return detected, ext, ok
}
