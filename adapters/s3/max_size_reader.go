package s3

import (
	"errors"
	"fmt"
	"io"
)

var ErrReachLimitType *ReachLimitError

type ReachLimitError struct {
	MaxBytes int64
}

func (e *ReachLimitError) Error() string {
	return fmt.Sprintf("reach limit of %s", FormatBytes(e.MaxBytes))
}

// NewMaxSizeReader 創建一個新的 MaxSizeReader 實例，
// 用於限制讀取的最大長度；如果讀取的長度超過限制，將返
// 回 ReachLimitError。
func NewMaxSizeReader(r io.Reader, maxSize int64) io.Reader {
	return &maxSizeReader{r, maxSize, maxSize}
}

type maxSizeReader struct {
	reader io.Reader
	i      int64 // 限制的總長度
	n      int64 // 還可以讀取的長度
}

func (r *maxSizeReader) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	// 只需要多讀 1 byte 就能判斷是否超過上限
	if int64(len(p)) > r.n+1 {
		p = p[:r.n+1]
	}
	n, err = r.reader.Read(p)
	if int64(n) <= r.n {
		r.n -= int64(n)
		return n, err
	}
	n = int(r.n)
	r.n = 0
	return n, &ReachLimitError{r.i}
}

// ReadAllLimited 讀取全部內容，超過 maxSize 時返回 ReachLimitError；
// maxSize 小於等於 0 表示不限制
func ReadAllLimited(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		return io.ReadAll(r)
	}
	return io.ReadAll(NewMaxSizeReader(r, maxSize))
}

// IsReachLimit 判斷錯誤是否為超過讀取上限
func IsReachLimit(err error) bool {
	return errors.As(err, &ErrReachLimitType)
}
