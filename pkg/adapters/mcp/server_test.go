package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/pkg/adapters/memory"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() *Server {
	return NewServer(abacus.New(), session.NewManager(memory.NewStore()), nil)
}

func TestPressKeys(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	st, err := s.handlePressKeys(ctx, mcp.CallToolRequest{}, PressArgs{SessionID: "agent", Keys: "12+3×4"})
	require.NoError(t, err)
	assert.Equal(t, "12+3×4", st.Buffer)
	assert.Equal(t, "24", st.Preview)

	st, err = s.handlePressKeys(ctx, mcp.CallToolRequest{}, PressArgs{SessionID: "agent", Keys: "="})
	require.NoError(t, err)
	assert.Len(t, st.History, 1)

	_, err = s.handlePressKeys(ctx, mcp.CallToolRequest{}, PressArgs{SessionID: "agent", Keys: "log"})
	assert.ErrorIs(t, err, domain.ErrUnknownKey)

	_, err = s.handlePressKeys(ctx, mcp.CallToolRequest{}, PressArgs{Keys: "1"})
	assert.Error(t, err)
}

func TestSessionTools(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	_, err := s.handleGetSession(ctx, mcp.CallToolRequest{}, SessionArgs{SessionID: "missing"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = s.handlePressKeys(ctx, mcp.CallToolRequest{}, PressArgs{SessionID: "h", Keys: "1+1= 3×3= 0"})
	require.NoError(t, err)

	st, err := s.handleSelectHistory(ctx, mcp.CallToolRequest{}, SelectArgs{SessionID: "h", Index: 1})
	require.NoError(t, err)
	assert.Equal(t, "2", st.Buffer)

	_, err = s.handleSelectHistory(ctx, mcp.CallToolRequest{}, SelectArgs{SessionID: "h", Index: 5})
	assert.ErrorIs(t, err, domain.ErrHistoryIndex)

	st, err = s.handleClearHistory(ctx, mcp.CallToolRequest{}, SessionArgs{SessionID: "h"})
	require.NoError(t, err)
	assert.Empty(t, st.History)

	st, err = s.handleGetSession(ctx, mcp.CallToolRequest{}, SessionArgs{SessionID: "h"})
	require.NoError(t, err)
	assert.Equal(t, "2", st.Buffer)
}

func TestEvaluateTool(t *testing.T) {
	s := newTestServer()

	res, err := s.handleEvaluate(context.Background(), mcp.CallToolRequest{}, EvaluateArgs{Expression: "2+3*4"})
	require.NoError(t, err)
	assert.Equal(t, "14", res.Result)

	_, err = s.handleEvaluate(context.Background(), mcp.CallToolRequest{}, EvaluateArgs{Expression: "5+"})
	assert.ErrorIs(t, err, domain.ErrInvalidExpression)
}

func TestStructuredHandlerBindsArguments(t *testing.T) {
	s := newTestServer()
	handler := mcp.NewStructuredToolHandler(s.handlePressKeys)

	req := mcp.CallToolRequest{}
	req.Params.Name = "press_keys"
	req.Params.Arguments = map[string]any{"session_id": "bind", "keys": "9√"}

	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.False(t, res.IsError)

	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var st domain.State
	require.NoError(t, json.Unmarshal(raw, &st))
	assert.Equal(t, "3", st.Buffer)
}
