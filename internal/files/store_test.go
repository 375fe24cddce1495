package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Save(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, "/uploads")

	url, err := store.Save("receipts", []byte("fake pdf bytes"), ".pdf")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "/uploads/receipts/"))
	assert.True(t, strings.HasSuffix(url, ".pdf"))

	name := filepath.Base(url)
	data, err := os.ReadFile(filepath.Join(dir, "receipts", name))
	require.NoError(t, err)
	assert.Equal(t, []byte("fake pdf bytes"), data)
}

func TestStore_Save_UniqueNames(t *testing.T) {
	store := NewStore(t.TempDir(), "/uploads")

	first, err := store.Save("receipts", []byte("a"), ".jpg")
	require.NoError(t, err)
	second, err := store.Save("receipts", []byte("b"), ".jpg")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
