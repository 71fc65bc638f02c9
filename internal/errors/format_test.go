package errors

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForCLIIncludesCodeAndHint(t *testing.T) {
	e := New(ErrCodeStoreCorruption, "embeddings.db is corrupt", nil).
		WithSuggestion("run docbert rebuild")
	out := FormatForCLI(e)
	assert.Contains(t, out, "embeddings.db is corrupt")
	assert.Contains(t, out, "run docbert rebuild")
	assert.Contains(t, out, ErrCodeStoreCorruption)
}

func TestFormatJSONRoundTrips(t *testing.T) {
	e := NotFound(ErrCodeNotFoundCollection, "collection", "notes")
	raw, err := FormatJSON(e)
	require.NoError(t, err)

	var decoded jsonError
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, ErrCodeNotFoundCollection, decoded.Code)
	assert.Equal(t, string(KindNotFound), decoded.Kind)
}

func TestFormatForLogIncludesDetails(t *testing.T) {
	e := New(ErrCodeStoreOpen, "open failed", nil).WithDetail("path", "/tmp/x")
	attrs := FormatForLog(e)
	assert.Equal(t, "/tmp/x", attrs["detail_path"])
	assert.Equal(t, ErrCodeStoreOpen, attrs["error_code"])
}

func TestFormatForUserOnPlainError(t *testing.T) {
	assert.Equal(t, "", FormatForUser(nil))
}
