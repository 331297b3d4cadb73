package utils

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenIDShapeAndUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenID("msg")
		require.True(t, strings.HasPrefix(id, "msg-"))
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestGenIDMonotonicPerPrefix(t *testing.T) {
	a := GenID("sess")
	b := GenID("sess")
	require.Less(t, a, b)
}

func TestJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, 404, "nope")
	require.Equal(t, 404, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "nope", body["error"])
}

func TestJSONWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, JSONWrite(rec, 201, map[string]int{"n": 7}))
	require.Equal(t, 201, rec.Code)
	require.JSONEq(t, `{"n":7}`, rec.Body.String())
}
