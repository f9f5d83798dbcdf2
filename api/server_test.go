package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	redisAdapter "supplishare/adapters/redis"
	"supplishare/models"
	"supplishare/models/testdb"
	"supplishare/services/listing"
)

var (
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	gifBytes = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\xff\xff\xff\x00\x00\x00")
)

func init() {
	gin.SetMode(gin.TestMode)
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type memoryBlobStore struct {
	mu    sync.Mutex
	names []string
}

func (m *memoryBlobStore) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names = append(m.names, name)
	return "https://blob.test/listings/" + name, nil
}

func (m *memoryBlobStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.names)
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	blobs  *memoryBlobStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testdb.New(t)
	blobs := &memoryBlobStore{}
	impl := newServerImpl(db, blobs, nil, ServerConfig{
		Upload:    UploadConfig{MaxBytes: 1 << 10, Timeout: 5 * time.Second},
		DBTimeout: 5 * time.Second,
	})
	router := gin.New()
	impl.RegisterRoutes(router, false)
	return &testServer{router: router, db: db, blobs: blobs}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, httptest.NewRequest(http.MethodGet, path, nil))
}

type formFile struct {
	name string
	data []byte
}

func newUploadRequest(t *testing.T, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for _, file := range files {
		part, err := writer.CreateFormFile("image", file.name)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	req := httptest.NewRequest(http.MethodPost, "/uploadimage", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func bikeFields() map[string]string {
	return map[string]string{
		"title":        "Bike",
		"description":  "Red bike",
		"zip":          "12345",
		"itemcategory": "Sports",
		"email":        "a@b.com",
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type uploadResult struct {
	Error        string `json:"error"`
	UploadedData struct {
		URLs []string `json:"urls"`
	} `json:"uploadedData"`
	ListingResult struct {
		Success   bool     `json:"success"`
		Message   string   `json:"message"`
		ListingID uint     `json:"listingid"`
		ImageURLs []string `json:"imageurls"`
	} `json:"listingResult"`
}

func TestUploadImageThenListListings(t *testing.T) {
	s := newTestServer(t)
	testdb.SeedUser(t, s.db, "a@b.com")

	w := s.do(t, newUploadRequest(t, bikeFields(),
		formFile{name: "front.png", data: pngBytes},
		formFile{name: "back.gif", data: gifBytes},
	))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[uploadResult](t, w)
	assert.Len(t, result.UploadedData.URLs, 2)
	assert.True(t, result.ListingResult.Success)
	assert.NotZero(t, result.ListingResult.ListingID)
	assert.Equal(t, result.UploadedData.URLs, result.ListingResult.ImageURLs)

	w = s.get(t, "/api/listings")
	require.Equal(t, http.StatusOK, w.Code)
	listings := decode[[]struct {
		ListingName string   `json:"listingname"`
		Username    string   `json:"username"`
		ImageURLs   []string `json:"imageurls"`
	}](t, w)
	require.Len(t, listings, 1)
	assert.Equal(t, "Bike", listings[0].ListingName)
	assert.Equal(t, "a@b.com", listings[0].Username)
	assert.Len(t, listings[0].ImageURLs, 2)

	w = s.get(t, fmt.Sprintf("/api/listings/postimages/%d", result.ListingResult.ListingID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, result.UploadedData.URLs, decode[[]string](t, w))
}

func TestUploadImageFailures(t *testing.T) {
	tests := []struct {
		name       string
		fields     func() map[string]string
		files      []formFile
		wantStatus int
		wantError  string
	}{
		{
			name: "缺少欄位",
			fields: func() map[string]string {
				f := bikeFields()
				delete(f, "zip")
				return f
			},
			files:      []formFile{{name: "a.png", data: pngBytes}},
			wantStatus: http.StatusBadRequest,
			wantError:  "validation_error",
		},
		{
			name:       "沒有檔案",
			fields:     bikeFields,
			wantStatus: http.StatusBadRequest,
			wantError:  "validation_error",
		},
		{
			name:       "不是圖片",
			fields:     bikeFields,
			files:      []formFile{{name: "a.png", data: pngBytes}, {name: "notes.txt", data: []byte("notes")}},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_file_type",
		},
		{
			name:       "檔案太大",
			fields:     bikeFields,
			files:      []formFile{{name: "big.png", data: append(append([]byte{}, pngBytes...), make([]byte, 2<<10)...)}},
			wantStatus: http.StatusBadRequest,
			wantError:  "validation_error",
		},
		{
			name: "使用者不存在",
			fields: func() map[string]string {
				f := bikeFields()
				f["email"] = "nobody@b.com"
				return f
			},
			files:      []formFile{{name: "a.png", data: pngBytes}},
			wantStatus: http.StatusNotFound,
			wantError:  "not_found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			testdb.SeedUser(t, s.db, "a@b.com")

			w := s.do(t, newUploadRequest(t, tt.fields(), tt.files...))
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			result := decode[uploadResult](t, w)
			assert.Equal(t, tt.wantError, result.Error)
			assert.False(t, result.ListingResult.Success)
			assert.NotEmpty(t, result.ListingResult.Message)
			if tt.wantStatus == http.StatusBadRequest {
				assert.Zero(t, s.blobs.Count())
			}

			var count int64
			require.NoError(t, s.db.Model(&models.Listing{}).Count(&count).Error)
			assert.Zero(t, count)
		})
	}
}

func TestSortedListingsRoutes(t *testing.T) {
	s := newTestServer(t)
	user := testdb.SeedUser(t, s.db, "a@b.com")
	for _, zip := range []string{"30301", "10001", "94105"} {
		testdb.SeedListing(t, s.db, models.Listing{
			ListingName: "L" + zip, Description: "d", Zipcode: zip, ItemCategory: "c", UserID: user.UserID,
		}, "https://blob.test/"+zip+".png")
	}

	w := s.get(t, "/api/listings/sort/zipcode/desc")
	require.Equal(t, http.StatusOK, w.Code)
	views := decode[[]struct {
		Zipcode string `json:"zipcode"`
	}](t, w)
	require.Len(t, views, 3)
	assert.Equal(t, []string{"94105", "30301", "10001"}, []string{views[0].Zipcode, views[1].Zipcode, views[2].Zipcode})

	for _, path := range []string{
		"/api/listings/sort/zipcode/ascending",
		"/api/listings/sort/listingname/asc",
		"/items/sort/zipcode/asc",
	} {
		w = s.get(t, path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, "not_found", decode[ErrorResponse](t, w).Error)
	}
}

func TestListingOwnerAndDelete(t *testing.T) {
	s := newTestServer(t)
	user := testdb.SeedUser(t, s.db, "a@b.com")
	seeded := testdb.SeedListing(t, s.db, models.Listing{
		ListingName: "Bike", Description: "d", Zipcode: "1", ItemCategory: "c", UserID: user.UserID,
	}, "https://blob.test/1.png")

	w := s.get(t, fmt.Sprintf("/listing/%d/userID", seeded.ListingID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, fmt.Sprint(user.UserID), strings.TrimSpace(w.Body.String()))

	assert.Equal(t, http.StatusNotFound, s.get(t, "/listing/999/userID").Code)
	assert.Equal(t, http.StatusBadRequest, s.get(t, "/listing/abc/userID").Code)

	deleteReq := func(body string) *http.Request {
		req := httptest.NewRequest(http.MethodDelete, "/api/listings/delete", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return req
	}
	w = s.do(t, deleteReq(fmt.Sprintf(`{"listingid": %d}`, seeded.ListingID)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Deleted successfully", decode[MessageResponse](t, w).Message)

	// 再刪一次仍然成功
	w = s.do(t, deleteReq(fmt.Sprintf(`{"listingid": %d}`, seeded.ListingID)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.get(t, fmt.Sprintf("/api/listings/postimages/%d", seeded.ListingID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))

	assert.Equal(t, http.StatusBadRequest, s.do(t, deleteReq(`{}`)).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, deleteReq(`{"listingid": "abc"}`)).Code)

	// listingid 也可以是數字字串
	second := testdb.SeedListing(t, s.db, models.Listing{
		ListingName: "Desk", Description: "d", Zipcode: "2", ItemCategory: "c", UserID: user.UserID,
	})
	w = s.do(t, deleteReq(fmt.Sprintf(`{"listingid": "%d"}`, second.ListingID)))
	require.Equal(t, http.StatusOK, w.Code)
	var remaining int64
	require.NoError(t, s.db.Model(&models.Listing{}).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestItemRoutes(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(
		`{"itemtype":"bike","description":"Red bike","zipcode":"12345","itemcategory":"Sports","bloburls":["{https://blob.test/a.png","https://blob.test/b.png}"]}`,
	))
	req.Header.Set("Content-Type", "application/json")
	w := s.do(t, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Item](t, w)
	require.NotNil(t, created.ItemPictureURL)
	assert.Equal(t, "https://blob.test/a.png,https://blob.test/b.png", *created.ItemPictureURL)

	w = s.get(t, "/getItemId/bike")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ItemID, decode[ItemIDResponse](t, w).ItemID)
	assert.Equal(t, http.StatusNotFound, s.get(t, "/getItemId/spaceship").Code)

	w = s.get(t, "/imageCount")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[ImageCountResponse](t, w).ImageCount)

	w = s.get(t, "/items")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Item](t, w), 1)

	del := func(path string) *httptest.ResponseRecorder {
		return s.do(t, httptest.NewRequest(http.MethodDelete, path, nil))
	}
	assert.Equal(t, http.StatusBadRequest, del("/deletePostById/abc").Code)
	assert.Equal(t, http.StatusOK, del(fmt.Sprintf("/deletePostById/%d", created.ItemID)).Code)
	assert.Equal(t, http.StatusNotFound, del(fmt.Sprintf("/deletePostById/%d", created.ItemID)).Code)
	assert.Equal(t, http.StatusNotFound, del("/deletePost/bike").Code)

	w = s.get(t, "/user-items/1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	testdb.SeedUser(t, s.db, "a@b.com")
	require.NoError(t, s.db.Create(&models.PictureSubmission{ItemPictureURL: "https://blob.test/1.png", Status: models.ListingStatusAccepted}).Error)
	require.NoError(t, s.db.Create(&models.ListingSubmission{ListingID: 4, Status: models.ListingStatusAccepted}).Error)

	w := s.get(t, "/api/admin/user-count")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[UserCountResponse](t, w).UserCount)

	w = s.get(t, "/api/admin/userData")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userData":[{"userid":1,"email":"a@b.com"}]}`, w.Body.String())

	w = s.get(t, "/items/images")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"itempictureurl":"https://blob.test/1.png","listingid":4}]`, w.Body.String())
}

func TestNoRoute(t *testing.T) {
	s := newTestServer(t)
	w := s.get(t, "/does/not/exist")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, w).Error)
}

func TestOrphanedBlobsArePublished(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	producer, err := newOrphanProducer(client, RedisConfig{
		StreamKeys: RedisStreamKeys{Orphans: "orphans"},
		Producer:   RedisProducerConfig{MaxLen: 10, WriteTimeout: time.Second},
	})
	require.NoError(t, err)
	producer.Start()

	db := testdb.New(t)
	impl := newServerImpl(db, &memoryBlobStore{}, producer, ServerConfig{})
	router := gin.New()
	impl.RegisterRoutes(router, false)
	s := &testServer{router: router, db: db}

	fields := bikeFields()
	fields["email"] = "nobody@b.com"
	w := s.do(t, newUploadRequest(t, fields, formFile{name: "a.png", data: pngBytes}, formFile{name: "b.gif", data: gifBytes}))
	require.Equal(t, http.StatusNotFound, w.Code)
	producer.Close()

	entries, err := client.XRange(context.Background(), "orphans", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	event, err := redisAdapter.DefaultParseFromMessage[listing.OrphanedBlobs](entries[0].Values)
	require.NoError(t, err)
	assert.Equal(t, "nobody@b.com", event.Email)
	assert.Len(t, event.URLs, 2)
	assert.NotEmpty(t, event.Reason)
}

func TestNewOrphanProducer_TrimsStream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	producer, err := newOrphanProducer(client, RedisConfig{
		StreamKeys: RedisStreamKeys{Orphans: "orphans"},
		Producer:   RedisProducerConfig{BufferSize: 4, MaxLen: 2},
	})
	require.NoError(t, err)
	producer.Start()
	for i := 0; i < 3; i++ {
		require.NoError(t, producer.Publish(listing.OrphanedBlobs{URLs: []string{fmt.Sprintf("https://blob.test/%d.png", i)}}))
	}
	producer.Close()

	length, err := client.XLen(context.Background(), "orphans").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), length)
}
