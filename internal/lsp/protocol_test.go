package lsp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFrame_ProducesContentLengthHeader(t *testing.T) {
	var buf bytes.Buffer

	err := writeFrame(&buf, request{JSONRPC: "2.0", ID: "1", Method: "initialize", Params: map[string]any{}})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Content-Length: ")
	assert.Contains(t, buf.String(), "\r\n\r\n{")
}

func TestFrameReader_RoundTripsAWrittenMessage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, request{JSONRPC: "2.0", ID: "7", Method: "textDocument/hover", Params: map[string]any{}}))

	fr := newFrameReader(&buf)
	msg, err := fr.readMessage()

	require.NoError(t, err)
	assert.Equal(t, "7", msg.ID)
}

func TestFrameReader_MessageWithoutIDIsANotification(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, map[string]any{"jsonrpc": "2.0", "method": "window/logMessage", "params": map[string]any{}}))

	fr := newFrameReader(&buf)
	msg, err := fr.readMessage()

	require.NoError(t, err)
	assert.Empty(t, msg.ID)
	assert.Equal(t, "window/logMessage", msg.Method)
}

func TestFrameReader_MultipleFramesReadInOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, request{JSONRPC: "2.0", ID: "1", Method: "a", Params: map[string]any{}}))
	require.NoError(t, writeFrame(&buf, request{JSONRPC: "2.0", ID: "2", Method: "b", Params: map[string]any{}}))

	fr := newFrameReader(&buf)
	first, err := fr.readMessage()
	require.NoError(t, err)
	second, err := fr.readMessage()
	require.NoError(t, err)

	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "2", second.ID)
}

func TestRPCError_FormatsCodeAndMessage(t *testing.T) {
	err := &rpcError{Code: -32601, Message: "method not found"}

	assert.Equal(t, "lsp error -32601: method not found", err.Error())
}
