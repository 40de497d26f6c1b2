package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/logging"
)

const testConfig = `
interviews:
  - id: registration
    questions:
      - id: q-email
        title: Contact
        fields:
          - type: text
            format: email
            set: email
    steps:
      - ask: q-email
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "interviews.yml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))

	engine, err := parley.New(path)
	require.NoError(t, err)

	srv := httptest.NewServer(NewHandler(engine, logging.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(encoded))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestInterviewFlow(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/interviews/registration", map[string]any{
		"target":  "https://example.net/register",
		"context": map[string]any{"event": "summer"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["completed"])
	assert.Equal(t, srv.URL+"/update-interview", body["target"])
	assert.Nil(t, body["content"])

	state := body["state"].(string)
	require.NotEmpty(t, state)

	// First update asks the question.
	resp, body = postJSON(t, srv.URL+"/update-interview", map[string]any{"state": state})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	content := body["content"].(map[string]any)
	assert.Equal(t, "question", content["type"])
	schema := content["schema"].(map[string]any)
	assert.Equal(t, "Contact", schema["title"])
	state = body["state"].(string)

	// The result is not available yet.
	res, err := http.Get(srv.URL + "/completed-interviews/" + state)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	// Answering completes the interview.
	resp, body = postJSON(t, srv.URL+"/update-interview", map[string]any{
		"state":     state,
		"responses": map[string]any{"field_0": "alice@example.net"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["completed"])
	assert.Equal(t, "https://example.net/register", body["target"])
	state = body["state"].(string)

	res, err = http.Get(srv.URL + "/completed-interviews/" + state)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var result map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&result))
	assert.Equal(t, "https://example.net/register", result["target"])
	assert.Equal(t, map[string]any{"event": "summer"}, result["context"])
	assert.Equal(t, map[string]any{"email": "alice@example.net"}, result["data"])
}

func TestStartUnknownInterview(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/interviews/unknown", "application/json", bytes.NewReader([]byte(`{"target":"t"}`)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateUnknownState(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/update-interview", "application/json", bytes.NewReader([]byte(`{"state":"bm90LWEtcmVhbC1rZXk"}`)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateValidationError(t *testing.T) {
	srv := newTestServer(t)

	_, body := postJSON(t, srv.URL+"/interviews/registration", map[string]any{"target": "t"})
	state := body["state"].(string)

	_, body = postJSON(t, srv.URL+"/update-interview", map[string]any{"state": state})
	state = body["state"].(string)

	resp, body := postJSON(t, srv.URL+"/update-interview", map[string]any{
		"state":     state,
		"responses": map[string]any{"field_0": "not-an-email"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Invalid input", body["message"])
	fields := body["fields"].(map[string]any)
	assert.Contains(t, fields, "field_0")
}

func TestHealthcheck(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/_healthcheck")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t)

	_, _ = postJSON(t, srv.URL+"/interviews/registration", map[string]any{"target": "t"})

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
