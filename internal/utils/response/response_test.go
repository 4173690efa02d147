package response_test

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlearn-labs/students-api/internal/utils/response"
)

func TestWriteJSONSetsHeaderAndStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, response.WriteJSON(rec, 201, response.Entity(map[string]string{"a": "b"})))

	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestListingKeepsZeroCount(t *testing.T) {
	// An empty listing must still serialise "count": 0 and "data": [] —
	// a plain int with omitempty would drop the count entirely.
	raw, err := json.Marshal(response.Listing([]string{}, 0))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, float64(0), decoded["count"])
	assert.Equal(t, []any{}, decoded["data"])
	assert.Equal(t, true, decoded["success"])
}

func TestEntityOmitsOptionalFields(t *testing.T) {
	raw, err := json.Marshal(response.Entity("x"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.NotContains(t, decoded, "count")
	assert.NotContains(t, decoded, "description")
	assert.NotContains(t, decoded, "message")
}

func TestGeneralError(t *testing.T) {
	resp := response.GeneralError(errors.New("boom"))
	assert.False(t, resp.Success)
	assert.Equal(t, "boom", resp.Error)
}
