package brand

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-brand-guard/internal/brand/enhancer"
	"rag-brand-guard/internal/common/errors"
)

func TestLoad_EmbeddedRegistry(t *testing.T) {
	core, err := Load("", enhancer.Options{})
	require.NoError(t, err)

	assert.NotNil(t, core.Registry)
	assert.Positive(t, core.Catalog.Len())
	assert.Equal(t, "Pond's", core.Normalizer.NormalizeQuery("PONDS"))
	require.NotNil(t, core.Enhancer.DetectEntity("¿Cómo le va a Pond's?"))
	assert.NotEmpty(t, core.Validator.KnownEntities())
}

func TestLoad_Errors(t *testing.T) {
	var stdErr *errors.StandardError

	_, err := Load(filepath.Join(t.TempDir(), "absent.json"), enhancer.Options{})
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeCatalogLoadFailed, stdErr.Code)

	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 1}`), 0o644))
	_, err = Load(path, enhancer.Options{})
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeCatalogInvalid, stdErr.Code)
}

func TestLoad_RejectsInconsistentRetrievalNumbers(t *testing.T) {
	_, err := Load("", enhancer.Options{DefaultMaxChunks: 20, BoostedMaxChunks: 10})

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeCatalogInvalid, stdErr.Code)
}
