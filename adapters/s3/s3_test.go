package s3_test

import (
	"context"
	"errors"
	"io"
	"testing"

	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplishare/adapters/s3"
)

type fakePutObject struct {
	input *awsS3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutObject) PutObject(ctx context.Context, params *awsS3.PutObjectInput, optFns ...func(*awsS3.Options)) (*awsS3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		f.body, _ = io.ReadAll(params.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &awsS3.PutObjectOutput{}, nil
}

func TestS3Operator_Upload(t *testing.T) {
	tests := []struct {
		name      string
		baseURL   string
		putErr    error
		wantURL   string
		wantError bool
	}{
		{
			name:    "上傳成功並回傳公開URL",
			baseURL: "https://cdn.example.com",
			wantURL: "https://cdn.example.com/1700000000000-abc.png",
		},
		{
			name:    "公開URL帶有路徑",
			baseURL: "https://cdn.example.com/images/",
			wantURL: "https://cdn.example.com/images/1700000000000-abc.png",
		},
		{
			name:      "上傳失敗",
			baseURL:   "https://cdn.example.com",
			putErr:    errors.New("access denied"),
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakePutObject{err: tt.putErr}
			operator, err := s3.NewS3Operator(client, "listing-images", tt.baseURL)
			require.NoError(t, err)

			got, err := operator.Upload(context.Background(), "1700000000000-abc.png", "image/png", []byte("data"))
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, got)
			assert.Equal(t, "listing-images", *client.input.Bucket)
			assert.Equal(t, "image/png", *client.input.ContentType)
			assert.Equal(t, []byte("data"), client.body)
		})
	}
}

func TestNewS3Operator_RequiresBucket(t *testing.T) {
	_, err := s3.NewS3Operator(&fakePutObject{}, "", "https://cdn.example.com")
	assert.Error(t, err)
}

func TestNewS3Operator_RequiresAbsolutePublicURL(t *testing.T) {
	for _, baseURL := range []string{"", "/images", "cdn.example.com/images"} {
		_, err := s3.NewS3Operator(&fakePutObject{}, "listing-images", baseURL)
		assert.Error(t, err, baseURL)
	}
}
