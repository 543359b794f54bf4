package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinPublicURL(t *testing.T) {
	tests := []struct {
		base, key, want string
	}{
		{"https://cdn.example.com", "participants/1/photo1.jpg", "https://cdn.example.com/participants/1/photo1.jpg"},
		{"https://cdn.example.com/", "/participants/1/photo1.jpg", "https://cdn.example.com/participants/1/photo1.jpg"},
		{"https://cdn.example.com/public/contest", "a.png", "https://cdn.example.com/public/contest/a.png"},
		{"", "a.png", ""},
		{"https://cdn.example.com", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, joinPublicURL(tt.base, tt.key), "base=%q key=%q", tt.base, tt.key)
	}
}

func TestKeyFromPublicURL(t *testing.T) {
	base := "https://cdn.example.com/public"

	key, ok := keyFromPublicURL(base, "https://cdn.example.com/public/participants/1/photo2-x.jpg?v=3")
	require.True(t, ok)
	assert.Equal(t, "participants/1/photo2-x.jpg", key)

	_, ok = keyFromPublicURL(base, "https://other.example.com/participants/1.jpg")
	assert.False(t, ok)

	_, ok = keyFromPublicURL(base, base+"/")
	assert.False(t, ok)
}

func TestNewS3Uploader_RequiresConfig(t *testing.T) {
	_, err := NewS3Uploader(context.Background(), S3Config{BucketName: "b"})
	assert.Error(t, err)
}

func TestS3Uploader_URLRoundTrip(t *testing.T) {
	u, err := NewS3Uploader(context.Background(), S3Config{
		Endpoint:        "http://127.0.0.1:9000",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		BucketName:      "contest",
		PublicBaseURL:   "https://cdn.example.com",
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	url := u.GetPublicURL("participants/7/photo1-abc.jpg")
	key, ok := u.KeyFromURL(url)
	require.True(t, ok)
	assert.Equal(t, "participants/7/photo1-abc.jpg", key)
}
