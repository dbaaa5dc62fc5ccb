package media

import (
	"context"
	"errors"
	"strings"
	"testing"

	"bookshelf/internal/config"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockObjectAPI struct {
	mock.Mock
}

func (m *mockObjectAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *mockObjectAPI) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.DeleteObjectOutput), args.Error(1)
}

var testMediaConfig = config.MediaConfig{
	Driver:    config.DriverS3,
	Bucket:    "bookshelf",
	PublicURL: "https://cdn.example.com/bookshelf",
	Folder:    "books",
}

func TestLocator_KeyFromURL(t *testing.T) {
	l := locator{publicURL: "https://cdn.example.com/bookshelf", folder: "books"}

	tests := []struct {
		name string
		url  string
		key  string
		ok   bool
	}{
		{"own object", "https://cdn.example.com/bookshelf/books/abc.png", "books/abc.png", true},
		{"query ignored", "https://cdn.example.com/bookshelf/books/abc.png?v=2", "books/abc.png", true},
		{"foreign host", "https://images.example.org/books/abc.png", "", false},
		{"prefix lookalike", "https://cdn.example.com/bookshelf-old/abc.png", "", false},
		{"bare base", "https://cdn.example.com/bookshelf/", "", false},
		{"empty", "", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			key, ok := l.keyFromURL(tc.url)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.key, key)
		})
	}
}

func TestS3Store_Upload(t *testing.T) {
	api := new(mockObjectAPI)
	store := newS3Store(api, testMediaConfig)
	img, err := NewImage(pngHeader)
	require.NoError(t, err)

	api.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Bucket == "bookshelf" &&
			strings.HasPrefix(*in.Key, "books/") &&
			strings.HasSuffix(*in.Key, ".png") &&
			*in.ContentType == "image/png" &&
			*in.ContentLength == int64(len(pngHeader))
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	url, err := store.Upload(context.Background(), img)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/bookshelf/books/"))

	key, ok := store.KeyFromURL(url)
	assert.True(t, ok)
	assert.True(t, strings.HasPrefix(key, "books/"))
	api.AssertExpectations(t)
}

func TestS3Store_UploadError(t *testing.T) {
	api := new(mockObjectAPI)
	store := newS3Store(api, testMediaConfig)
	img, _ := NewImage(pngHeader)

	api.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied")).Once()

	_, err := store.Upload(context.Background(), img)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	api.AssertExpectations(t)
}

func TestS3Store_Delete(t *testing.T) {
	api := new(mockObjectAPI)
	store := newS3Store(api, testMediaConfig)

	api.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return *in.Bucket == "bookshelf" && *in.Key == "books/abc.png"
	})).Return(&s3.DeleteObjectOutput{}, nil).Once()
	assert.NoError(t, store.Delete(context.Background(), "books/abc.png"))

	api.On("DeleteObject", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()
	err := store.Delete(context.Background(), "books/def.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "books/def.png")
	api.AssertExpectations(t)
}

func TestNewS3Store_WithEndpoint(t *testing.T) {
	cfg := testMediaConfig
	cfg.Region = "us-east-1"
	cfg.AccessKey = "minio"
	cfg.SecretKey = "minio-secret"
	cfg.Endpoint = "http://127.0.0.1:9000"

	store, err := NewS3Store(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "bookshelf", store.bucket)
	assert.IsType(t, &s3.Client{}, store.api)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore("http://media.local", "books")
	img, _ := NewImage(pngHeader)
	ctx := context.Background()

	url, err := store.Upload(ctx, img)
	require.NoError(t, err)

	key, ok := store.KeyFromURL(url)
	require.True(t, ok)
	assert.True(t, store.Has(key))
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Delete(ctx, key))
	assert.False(t, store.Has(key))
	assert.ErrorIs(t, store.Delete(ctx, key), ErrObjectNotFound)
}
