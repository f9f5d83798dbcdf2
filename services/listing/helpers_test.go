package listing

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"gorm.io/gorm"
)

var (
	discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
	gifBytes  = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\xff\xff\xff\x00\x00\x00")
)

var errUploadFailed = errors.New("upload failed")

type uploadedBlob struct {
	contentType string
	data        []byte
}

// fakeBlobStore 把上傳的內容保存在記憶體
// failOn 中的內容會上傳失敗
type fakeBlobStore struct {
	mu      sync.Mutex
	blobs   map[string]uploadedBlob
	failOn  [][]byte
	calls   int
	baseURL string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		blobs:   map[string]uploadedBlob{},
		baseURL: "https://blob.test/listings/",
	}
}

func (f *fakeBlobStore) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for _, fail := range f.failOn {
		if bytes.Equal(fail, data) {
			return "", errUploadFailed
		}
	}
	url := f.baseURL + name
	f.blobs[url] = uploadedBlob{contentType: contentType, data: data}
	return url, nil
}

func (f *fakeBlobStore) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeBlobStore) Blob(url string) (uploadedBlob, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	blob, ok := f.blobs[url]
	return blob, ok
}

type fakeJournal struct {
	mu     sync.Mutex
	events []OrphanedBlobs
}

func (f *fakeJournal) Publish(event OrphanedBlobs) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeJournal) Events() []OrphanedBlobs {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]OrphanedBlobs(nil), f.events...)
}

func newTestService(t *testing.T, db *gorm.DB, blobs IBlobStore, opts ...ServiceOption) *Service {
	t.Helper()
	opts = append([]ServiceOption{WithLogger(discardLogger)}, opts...)
	return NewService(db, blobs, opts...)
}
