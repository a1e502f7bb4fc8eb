package storage

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterialKey(t *testing.T) {
	key, err := MaterialKey(3, "application/pdf; charset=binary")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "materials/stage_3/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))

	other, err := MaterialKey(3, "application/pdf")
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	_, err = MaterialKey(3, "application/x-msdownload")
	assert.ErrorIs(t, err, ErrUnsupportedContentType)
}

func TestPublicURL(t *testing.T) {
	base, err := url.Parse("https://cdn.example.com/files/")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/files/materials/a.pdf", publicURL(base, "materials/a.pdf"))
	assert.Equal(t, "https://cdn.example.com/files/materials/a.pdf", publicURL(base, "/materials/a.pdf"))
	assert.Equal(t, "", publicURL(base, ""))
	assert.Equal(t, "", publicURL(nil, "x"))
}
