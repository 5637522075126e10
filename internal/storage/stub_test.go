package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubStorage_UploadAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStubStorage()

	url, err := s.Upload(ctx, "products/p1/a.png", "image/png", strings.NewReader("png"), 3)
	require.NoError(t, err)
	assert.Equal(t, "https://storage.example.com/products/p1/a.png", url)

	data, ok := s.Object("products/p1/a.png")
	require.True(t, ok)
	assert.Equal(t, "png", string(data))

	require.NoError(t, s.Delete(ctx, "products/p1/a.png"))
	_, ok = s.Object("products/p1/a.png")
	assert.False(t, ok)
}

func TestStubStorage_RequiresKey(t *testing.T) {
	s := NewStubStorage()
	_, err := s.Upload(context.Background(), "", "image/png", strings.NewReader(""), 0)
	assert.Error(t, err)
	assert.Error(t, s.Delete(context.Background(), ""))
}
