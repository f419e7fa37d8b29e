package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	formatter := NewJSONFormatter(&buf)
	formatter.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, formatter.WriteSuccess("run", map[string]interface{}{"group_id": "g-1"}, map[string]interface{}{"chunks": 3}))

	var out Output
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.True(t, out.Success)
	assert.Equal(t, "2026-03-01T12:00:00Z", out.Timestamp)
	assert.Equal(t, "run", out.Command)
	assert.Nil(t, out.Error)
	assert.EqualValues(t, 3, out.Summary["chunks"])
}

func TestJSONFormatterError(t *testing.T) {
	var buf bytes.Buffer
	formatter := NewJSONFormatter(&buf)

	require.NoError(t, formatter.WriteError("run", errors.New("boom"), "OPERATION_FAILED", "retry"))

	var out Output
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.False(t, out.Success)
	require.NotNil(t, out.Error)
	assert.Equal(t, "boom", out.Error.Message)
	assert.Equal(t, "OPERATION_FAILED", out.Error.Code)
	assert.Equal(t, "retry", out.Error.Suggestion)
}

func TestJSONFormatterResultWithError(t *testing.T) {
	var buf bytes.Buffer
	formatter := NewJSONFormatter(&buf)

	require.NoError(t, formatter.WriteResult("run", []int{1, 2}, nil, &ErrorOutput{Message: "latency budget exceeded"}))

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, false, out["success"])
	assert.Len(t, out["data"], 2)
}
