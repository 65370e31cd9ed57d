package feed

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ofisentinel/sentinel/internal/model"
)

func TestBuildSubscribeFrame(t *testing.T) {
	frame, err := buildSubscribeFrame("BTCUSDT")
	require.NoError(t, err)

	var req subscribeRequest
	require.NoError(t, json.Unmarshal(frame, &req))

	assert.Equal(t, "subscribe", req.Op)
	require.Len(t, req.Args, 2)
	assert.Equal(t, "books", req.Args[0].Channel)
	assert.Equal(t, "trade", req.Args[1].Channel)
	assert.Equal(t, "BTCUSDT", req.Args[0].InstID)
	assert.Equal(t, instType, req.Args[0].InstType)
}

func TestParseBookSnapshot_UsesOnlyFirstElement(t *testing.T) {
	raw := json.RawMessage(`[
		{"bids":[["100.5","1.2"],["100.0","3"]],"asks":[["101.0","0.5"]],"ts":"1700000000000"},
		{"bids":[["999","999"]],"asks":[["999","999"]],"ts":"1"}
	]`)

	snap, err := parseBookSnapshot("BTCUSDT", raw, 0)
	require.NoError(t, err)

	require.Len(t, snap.Bids, 2)
	assert.Equal(t, "100.5", snap.Bids[0].Price.String())
	assert.Equal(t, int64(1700000000000), snap.TimestampMS)
}

func TestParseBookSnapshot_RejectsMalformedPrice(t *testing.T) {
	raw := json.RawMessage(`[{"bids":[["not-a-number","1"]],"asks":[],"ts":"1"}]`)
	_, err := parseBookSnapshot("BTCUSDT", raw, 0)
	assert.Error(t, err)
}

func TestParseTrades_SkipsMalformedEntriesIndividually(t *testing.T) {
	raw := json.RawMessage(`[
		{"ts":"1","price":"100","size":"2","side":"buy"},
		{"ts":"2","price":"bad","size":"2","side":"sell"},
		{"ts":"3","price":"100","size":"1","side":"sell"}
	]`)

	trades, skipped := parseTrades("BTCUSDT", raw, 0)

	require.Len(t, trades, 2)
	require.Len(t, skipped, 1)
	assert.Equal(t, model.SideBuy, trades[0].Side)
	assert.Equal(t, model.SideSell, trades[1].Side)
}

func TestIsAckFrame(t *testing.T) {
	assert.True(t, isAckFrame([]byte("pong")))
	assert.True(t, isAckFrame([]byte(" PONG ")))
	assert.False(t, isAckFrame([]byte(`{"event":"error"}`)))
}

func TestIsErrorFrame(t *testing.T) {
	assert.True(t, isErrorFrame([]byte(`{"event":"error","code":"30001"}`)))
	assert.False(t, isErrorFrame([]byte(`{"arg":{"channel":"books"}}`)))
}
