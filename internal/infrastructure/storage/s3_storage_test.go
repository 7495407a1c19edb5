package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hazina/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func validConfig(endpoint string) *config.StorageConfig {
	return &config.StorageConfig{
		Enabled:      true,
		Endpoint:     endpoint,
		Bucket:       "reports",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		UsePathStyle: true,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr error
	}{
		{name: "nil config", cfg: nil, wantErr: ErrMissingConfig},
		{name: "missing bucket", cfg: &config.StorageConfig{AccessKey: "k", SecretKey: "s"}, wantErr: ErrMissingBucket},
		{name: "missing access key", cfg: &config.StorageConfig{Bucket: "b", SecretKey: "s"}, wantErr: ErrMissingKeys},
		{name: "missing secret key", cfg: &config.StorageConfig{Bucket: "b", AccessKey: "k"}, wantErr: ErrMissingKeys},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3ObjectStorage(tt.cfg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("defaults", func(t *testing.T) {
		s, err := NewS3ObjectStorage(validConfig(""))
		require.NoError(t, err)
		assert.Equal(t, "reports", s.Bucket())
		assert.Equal(t, defaultPresignExpiration, s.presignExpiration)
	})

	t.Run("option overrides expiration", func(t *testing.T) {
		s, err := NewS3ObjectStorage(validConfig(""), WithPresignExpiration(time.Hour), WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, time.Hour, s.presignExpiration)
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		useSSL   bool
		want     string
	}{
		{endpoint: "", want: "http://localhost:9000"},
		{endpoint: "minio:9000", want: "http://minio:9000"},
		{endpoint: "minio:9000", useSSL: true, want: "https://minio:9000"},
		{endpoint: "https://s3.example.com/", want: "https://s3.example.com"},
	}
	for _, tt := range tests {
		got, err := normalizeEndpoint(tt.endpoint, tt.useSSL)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := normalizeEndpoint("http://", false)
	assert.Error(t, err)
}

type recordedPut struct {
	path        string
	body        string
	contentType string
}

func TestS3ObjectStorage_Upload(t *testing.T) {
	var (
		mu   sync.Mutex
		puts []recordedPut
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if r.Method == http.MethodPut {
			mu.Lock()
			puts = append(puts, recordedPut{path: r.URL.Path, body: string(body), contentType: r.Header.Get("Content-Type")})
			mu.Unlock()
		}
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := NewS3ObjectStorage(validConfig(srv.URL))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.EnsureBucket(ctx))

	csv := "member_id,approved_total\nm1,100.00\n"
	require.NoError(t, s.Upload(ctx, "reports/g1/20260101T000000Z.csv", []byte(csv), "text/csv"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, puts, 1)
	assert.Equal(t, "/reports/reports/g1/20260101T000000Z.csv", puts[0].path)
	assert.Equal(t, csv, puts[0].body)
	assert.Equal(t, "text/csv", puts[0].contentType)
}

func TestS3ObjectStorage_UploadRejectsEmptyKey(t *testing.T) {
	s, err := NewS3ObjectStorage(validConfig(""))
	require.NoError(t, err)
	assert.ErrorIs(t, s.Upload(context.Background(), "", []byte("x"), "text/csv"), ErrEmptyKey)
}

func TestS3ObjectStorage_UploadServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s, err := NewS3ObjectStorage(validConfig(srv.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = s.Upload(ctx, "reports/g1/a.csv", []byte("x"), "text/csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reports/g1/a.csv")
}

func TestS3ObjectStorage_DownloadURL(t *testing.T) {
	s, err := NewS3ObjectStorage(validConfig("http://localhost:9000"), WithPresignExpiration(30*time.Minute))
	require.NoError(t, err)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	u, expiresAt, err := s.DownloadURL(context.Background(), "reports/g1/a.csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "http://localhost:9000/reports/reports/g1/a.csv?"))
	assert.Contains(t, u, "X-Amz-Expires=1800")
	assert.Equal(t, fixed.Add(30*time.Minute), expiresAt)

	_, _, err = s.DownloadURL(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyKey)
}
