package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAndGet(t *testing.T) {
	t.Cleanup(Reset)
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("PHOTO_ROOT_DIR=/srv/photos\nMANIFEST_WORKERS=3\nMANIFEST_EXCLUDED_TAGS=foo, bar,,baz\n"), 0o644))

	require.NoError(t, Load(filepath.Join(dir, "missing.env"), file))

	assert.Equal(t, "/srv/photos", Get("PHOTO_ROOT_DIR", "photos"))
	assert.Equal(t, 3, GetInt("MANIFEST_WORKERS", 8))
	assert.Equal(t, []string{"foo", "bar", "baz"}, GetList("MANIFEST_EXCLUDED_TAGS"))
	assert.Equal(t, "fallback", Get("PHOTO_MANIFEST_UNSET_KEY", "fallback"))
}

func TestProcessEnvironment(t *testing.T) {
	t.Cleanup(Reset)
	t.Setenv("APP_ENV", "dev")
	t.Setenv("MANIFEST_WORKERS", "many")

	require.NoError(t, Load(filepath.Join(t.TempDir(), "none.env")))
	assert.True(t, IsDev())
	assert.Equal(t, 4, GetInt("MANIFEST_WORKERS", 4))
	assert.Nil(t, GetList("MANIFEST_EXCLUDED_TAGS_UNSET"))
}
