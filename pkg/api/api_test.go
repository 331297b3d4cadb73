package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"playbackd/pkg/catalog"
	"playbackd/pkg/config"
	"playbackd/pkg/models"
	"playbackd/pkg/playback"
	"playbackd/pkg/script"
)

const apiTestScript = `
threads:
  - id: summary
    resolves_rule: rule-totals
    messages:
      - {id: m1, sender: assistant, text: "checking totals", phases: [streaming, success]}
      - {id: m2, sender: assistant, text: "totals match", phases: [hidden, success]}
    replies:
      - keywords: [total]
        message: {id: r1, sender: assistant, text: "still fine", phases: [success]}
`

func newTestServer(t *testing.T, rl config.RateLimit) *httptest.Server {
	t.Helper()

	require.NoError(t, catalog.Open(filepath.Join(t.TempDir(), "catalog")))
	t.Cleanup(func() { _ = catalog.Close() })
	require.NoError(t, catalog.SaveDocument(models.Document{ID: "doc-1", Name: "Invoice 0042"}))
	require.NoError(t, catalog.SaveRule(models.ValidationRule{ID: "rule-totals", Doc: "doc-1", Field: "total"}))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc-1.yaml"), []byte(apiTestScript), 0o644))
	scripts, err := script.Load(dir, 0)
	require.NoError(t, err)

	off := false
	cfg := config.PlaybackConfig{
		Animate:            &off,
		TickInterval:       config.Duration(2 * time.Millisecond),
		CharsPerTick:       8,
		LoadingGrace:       config.Duration(5 * time.Millisecond),
		AdvanceDelay:       config.Duration(5 * time.Millisecond),
		VisibilityDebounce: config.Duration(5 * time.Millisecond),
		ReplyDelay:         config.Duration(5 * time.Millisecond),
		ReplyRate:          rl,
	}

	manager := playback.NewManager(cfg)
	t.Cleanup(manager.CloseAll)

	r := mux.NewRouter()
	NewServer(cfg, manager, scripts).Register(r)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func openSession(t *testing.T, base string) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, base+"/v1/sessions", map[string]string{"document": "doc-1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out struct {
		ID       string `json:"id"`
		Document string `json:"document"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Equal(t, "doc-1", out.Document)
	require.NotEmpty(t, out.ID)
	return out.ID
}

type transcriptResponse struct {
	Thread   string                 `json:"thread"`
	Messages []playback.MessageView `json:"messages"`
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t, config.RateLimit{RPS: 100, Burst: 100})
	id := openSession(t, ts.URL)

	// thread not injected yet
	resp, _ := doJSON(t, http.MethodGet, fmt.Sprintf("%s/v1/sessions/%s/threads/summary", ts.URL, id), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/v1/sessions/%s/threads/summary/visible", ts.URL, id), nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		resp, body := doJSON(t, http.MethodGet, fmt.Sprintf("%s/v1/sessions/%s/threads/summary", ts.URL, id), nil)
		if resp.StatusCode != http.StatusOK {
			return false
		}
		var tr transcriptResponse
		if json.Unmarshal(body, &tr) != nil {
			return false
		}
		return len(tr.Messages) == 2 && tr.Messages[1].Delivered && tr.Messages[1].Text == "totals match"
	}, 2*time.Second, 5*time.Millisecond)

	// completing the thread resolved its validation rule
	require.Eventually(t, func() bool {
		r, err := catalog.GetRule("doc-1", "rule-totals")
		return err == nil && r.Resolved
	}, 2*time.Second, 5*time.Millisecond)

	resp, body := doJSON(t, http.MethodPost, fmt.Sprintf("%s/v1/sessions/%s/threads/summary/replies", ts.URL, id), map[string]string{"text": "is the total right?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var m models.Message
	require.NoError(t, json.Unmarshal(body, &m))
	require.Equal(t, models.SenderUser, m.Sender)

	// keyword responder lands as a fourth message
	require.Eventually(t, func() bool {
		resp, body := doJSON(t, http.MethodGet, fmt.Sprintf("%s/v1/sessions/%s/threads/summary", ts.URL, id), nil)
		if resp.StatusCode != http.StatusOK {
			return false
		}
		var tr transcriptResponse
		if json.Unmarshal(body, &tr) != nil {
			return false
		}
		return len(tr.Messages) == 4
	}, 2*time.Second, 5*time.Millisecond)

	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/v1/sessions/%s", ts.URL, id), nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, fmt.Sprintf("%s/v1/sessions/%s/threads/summary", ts.URL, id), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateSessionErrors(t *testing.T) {
	ts := newTestServer(t, config.RateLimit{})

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/sessions", map[string]string{"document": "ghost"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/v1/sessions", map[string]string{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/sessions", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	raw.Body.Close()
	require.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestUnknownSessionAndThread(t *testing.T) {
	ts := newTestServer(t, config.RateLimit{})

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/sessions/sess-ghost/threads/summary/visible", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/v1/sessions/sess-ghost", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	id := openSession(t, ts.URL)
	resp, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/v1/sessions/%s/threads/nope/visible", ts.URL, id), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReplyValidationAndRateLimit(t *testing.T) {
	ts := newTestServer(t, config.RateLimit{RPS: 1, Burst: 2})
	id := openSession(t, ts.URL)

	resp, _ := doJSON(t, http.MethodPost, fmt.Sprintf("%s/v1/sessions/%s/threads/summary/replies", ts.URL, id), map[string]string{"text": ""})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// burst of 2 is consumed (the empty-text request above already took one
	// token), then the limiter kicks in
	saw429 := false
	for i := 0; i < 5; i++ {
		resp, _ := doJSON(t, http.MethodPost, fmt.Sprintf("%s/v1/sessions/%s/threads/summary/replies", ts.URL, id), map[string]string{"text": "hello"})
		if resp.StatusCode == http.StatusTooManyRequests {
			saw429 = true
			break
		}
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	require.True(t, saw429)
}

func TestDocumentEndpoints(t *testing.T) {
	ts := newTestServer(t, config.RateLimit{})

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/v1/documents", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var docs struct {
		Documents []models.Document `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(body, &docs))
	require.Len(t, docs.Documents, 1)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/v1/documents/doc-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var d models.Document
	require.NoError(t, json.Unmarshal(body, &d))
	require.Equal(t, "Invoice 0042", d.Name)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/v1/documents/ghost", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/v1/documents/doc-1/rules", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rules struct {
		Rules []models.ValidationRule `json:"rules"`
	}
	require.NoError(t, json.Unmarshal(body, &rules))
	require.Len(t, rules.Rules, 1)
	require.False(t, rules.Rules[0].Resolved)
}
