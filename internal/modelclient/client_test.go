package modelclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cuakit/api/schemas"
	"github.com/xkilldash9x/cuakit/internal/config"
)

func testModelConfig(baseURL string) config.ModelConfig {
	return config.ModelConfig{
		Name:           "computer-use-preview",
		BaseURL:        baseURL,
		APIKey:         "sk-test",
		RequestTimeout: 5 * time.Second,
		Truncation:     "auto",
	}
}

func TestNew_RequiresAPIKey(t *testing.T) {
	cfg := testModelConfig("https://api.example.com/v1")
	cfg.APIKey = ""

	_, err := New(cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestCreateResponse_RequestShape(t *testing.T) {
	var (
		gotPath   string
		gotAuth   string
		gotCType  string
		gotBody   map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotCType = r.Header.Get("Content-Type")
		require.NoError(t, jsoniter.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"resp-1","status":"completed","output":[
			{"type":"message","role":"assistant","content":[{"type":"output_text","text":"hi"}]}
		]}`))
	}))
	defer server.Close()

	client, err := New(testModelConfig(server.URL), zap.NewNop())
	require.NoError(t, err)

	input := []schemas.Item{schemas.UserMessage("hello")}
	tools := []schemas.ToolDescriptor{schemas.ComputerTool(1024, 768, schemas.EnvBrowser)}
	resp, err := client.CreateResponse(context.Background(), input, tools)
	require.NoError(t, err)

	assert.Equal(t, "/responses", gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "application/json", gotCType)
	assert.Equal(t, "computer-use-preview", gotBody["model"])
	assert.Equal(t, "auto", gotBody["truncation"])
	assert.Len(t, gotBody["input"], 1)
	assert.Len(t, gotBody["tools"], 1)

	assert.Equal(t, "resp-1", resp.ID)
	require.Len(t, resp.Output, 1)
	msg, ok := resp.Output[0].(schemas.Message)
	require.True(t, ok)
	assert.Equal(t, "hi", msg.Text())
}

func TestCreateResponse_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	client, err := New(testModelConfig(server.URL), zap.NewNop())
	require.NoError(t, err)

	_, err = client.CreateResponse(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestCreateResponse_EmptyOutputPassesThrough(t *testing.T) {
	// Whether an empty output is fatal is the turn loop's decision; the
	// client reports the response verbatim.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"resp-2","status":"incomplete","output":[]}`))
	}))
	defer server.Close()

	client, err := New(testModelConfig(server.URL), zap.NewNop())
	require.NoError(t, err)

	resp, err := client.CreateResponse(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "resp-2", resp.ID)
	assert.Empty(t, resp.Output)
}

func TestCreateResponse_MalformedResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":`))
	}))
	defer server.Close()

	client, err := New(testModelConfig(server.URL), zap.NewNop())
	require.NoError(t, err)

	_, err = client.CreateResponse(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding model response")
}

func TestCreateResponse_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"resp-3","output":[]}`))
	}))
	defer server.Close()

	client, err := New(testModelConfig(server.URL), zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.CreateResponse(ctx, nil, nil)
	require.ErrorIs(t, err, context.Canceled)
}
