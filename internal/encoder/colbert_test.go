package encoder

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColbertEncoderLazilyMaterializesModelOnce(t *testing.T) {
	dir := t.TempDir()
	enc, err := NewColbertEncoder(dir, "colbert-ir/colbertv2.0")
	require.NoError(t, err)

	_, err = enc.EncodeQuery(context.Background(), "hello")
	require.NoError(t, err)

	marker := filepath.Join(dir, "models", "colbert-ir_colbertv2.0", "loaded")
	assert.FileExists(t, marker)
}

func TestColbertEncoderQueryCacheReturnsSameMatrixInstance(t *testing.T) {
	enc, err := NewColbertEncoder(t.TempDir(), "colbert-ir/colbertv2.0")
	require.NoError(t, err)
	ctx := context.Background()

	a, err := enc.EncodeQuery(ctx, "repeated query")
	require.NoError(t, err)
	b, err := enc.EncodeQuery(ctx, "repeated query")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestColbertEncoderDocumentBatchPreservesOrder(t *testing.T) {
	enc, err := NewColbertEncoder(t.TempDir(), "colbert-ir/colbertv2.0")
	require.NoError(t, err)

	texts := []string{"first document", "second document", "third document"}
	matrices, err := enc.EncodeDocuments(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, matrices, 3)

	again, err := enc.EncodeDocuments(context.Background(), texts)
	require.NoError(t, err)
	assert.Equal(t, matrices, again)
}

func TestColbertEncoderDifferentModelsDiverge(t *testing.T) {
	a, err := NewColbertEncoder(t.TempDir(), "model-a")
	require.NoError(t, err)
	b, err := NewColbertEncoder(t.TempDir(), "model-b")
	require.NoError(t, err)

	ma, err := a.EncodeQuery(context.Background(), "same text")
	require.NoError(t, err)
	mb, err := b.EncodeQuery(context.Background(), "same text")
	require.NoError(t, err)
	assert.NotEqual(t, ma.Data, mb.Data)
}

func TestResolveModelIDPriorityChain(t *testing.T) {
	t.Setenv("DOCBERT_MODEL", "")
	assert.Equal(t, "override", ResolveModelID("override", "setting", true))

	t.Setenv("DOCBERT_MODEL", "env-model")
	assert.Equal(t, "env-model", ResolveModelID("", "setting", true))

	t.Setenv("DOCBERT_MODEL", "")
	assert.Equal(t, "setting", ResolveModelID("", "setting", true))
	assert.Equal(t, DefaultModelID, ResolveModelID("", "", false))
}
