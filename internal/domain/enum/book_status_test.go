package enum

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookStatus_String(t *testing.T) {
	assert.Equal(t, "Ready", BookStatusReady.String())
	assert.Equal(t, "Posted", BookStatusPosted.String())
	assert.Equal(t, "BookStatus(9)", BookStatus(9).String())
}

func TestBookStatus_Predicates(t *testing.T) {
	tests := []struct {
		status         BookStatus
		issued         bool
		acceptsEntries bool
	}{
		{BookStatusInactive, false, false},
		{BookStatusReady, false, false},
		{BookStatusAssigned, true, true},
		{BookStatusReturned, true, true},
		{BookStatusPosted, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.Equal(t, tt.issued, tt.status.IsIssued())
			assert.Equal(t, tt.acceptsEntries, tt.status.AcceptsEntries())
		})
	}
}

func TestBookStatus_JSON(t *testing.T) {
	data, err := json.Marshal(BookStatusAssigned)
	require.NoError(t, err)
	assert.JSONEq(t, `"Assigned"`, string(data))

	var s BookStatus
	require.NoError(t, json.Unmarshal([]byte(`"returned"`), &s))
	assert.Equal(t, BookStatusReturned, s)

	require.NoError(t, json.Unmarshal([]byte(`4`), &s))
	assert.Equal(t, BookStatusPosted, s)

	assert.Error(t, json.Unmarshal([]byte(`"lost"`), &s))
}

func TestBookStatus_Scan(t *testing.T) {
	var s BookStatus
	require.NoError(t, s.Scan(int64(2)))
	assert.Equal(t, BookStatusAssigned, s)

	require.NoError(t, s.Scan(nil))
	assert.Equal(t, BookStatusInactive, s)

	assert.Error(t, s.Scan("x"))
}

func TestParseNumberingMode(t *testing.T) {
	m, err := ParseNumberingMode("")
	require.NoError(t, err)
	assert.Equal(t, NumberingSequential, m)

	m, err = ParseNumberingMode("restart")
	require.NoError(t, err)
	assert.Equal(t, NumberingRestart, m)

	_, err = ParseNumberingMode("shuffle")
	assert.Error(t, err)
}
