package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_repurposer/generator"
	"content_repurposer/style"
	"content_repurposer/workflow"
)

func newTestServer(t *testing.T, llm generator.LLMClient) *httptest.Server {
	t.Helper()
	agent, err := generator.NewAgent(llm, nil)
	require.NoError(t, err)
	engine, err := workflow.NewEngine(agent, style.NewProvider(nil, nil), nil)
	require.NoError(t, err)
	srv, err := New(engine, nil, time.Minute, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func postRun(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/runs", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestCreateAndFetchRun(t *testing.T) {
	ts := newTestServer(t, generator.MockLLM{})

	resp := postRun(t, ts, `{"transcript": "Short talk about X.", "metadata": {"title": "X"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		RunID    string `json:"run_id"`
		Status   string `json:"status"`
		Payloads []struct {
			Platform string   `json:"platform"`
			Parts    []string `json:"parts"`
			Subject  string   `json:"subject"`
		} `json:"payloads"`
		Bundle struct {
			Results map[string]json.RawMessage `json:"results"`
		} `json:"bundle"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.RunID)
	assert.Equal(t, "complete", created.Status)
	require.Len(t, created.Payloads, 3)
	assert.Equal(t, "twitter", created.Payloads[0].Platform)
	assert.Len(t, created.Payloads[0].Parts, 3)
	assert.Equal(t, "One idea worth stealing", created.Payloads[2].Subject)
	assert.Contains(t, created.Bundle.Results, "linkedin")

	get, err := http.Get(ts.URL + "/api/runs/" + created.RunID)
	require.NoError(t, err)
	defer get.Body.Close()
	assert.Equal(t, http.StatusOK, get.StatusCode)

	missing, err := http.Get(ts.URL + "/api/runs/nope")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestCreateRunPartial(t *testing.T) {
	llm := generator.FuncLLM(func(ctx context.Context, req generator.Request) (string, error) {
		if req.Task == generator.TaskGenerate && req.Platform == generator.LinkedIn {
			return "", errors.New("boom")
		}
		return generator.MockLLM{}.Complete(ctx, req)
	})
	ts := newTestServer(t, llm)

	resp := postRun(t, ts, `{"transcript": "Short talk about X."}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body struct {
		Status   string            `json:"status"`
		Failed   []string          `json:"failed"`
		Payloads []json.RawMessage `json:"payloads"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "partial", body.Status)
	assert.Equal(t, []string{"linkedin"}, body.Failed)
	assert.Len(t, body.Payloads, 2)
}

func TestCreateRunErrors(t *testing.T) {
	upstream := generator.FuncLLM(func(context.Context, generator.Request) (string, error) {
		return "", errors.New("offline")
	})

	tests := []struct {
		name   string
		llm    generator.LLMClient
		method string
		body   string
		want   int
	}{
		{"bad json", generator.MockLLM{}, http.MethodPost, `{`, http.StatusBadRequest},
		{"empty transcript", generator.MockLLM{}, http.MethodPost, `{"transcript": "  "}`, http.StatusBadRequest},
		{"wrong method", generator.MockLLM{}, http.MethodGet, ``, http.StatusMethodNotAllowed},
		{"analysis fails", upstream, http.MethodPost, `{"transcript": "text"}`, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.llm)
			req, err := http.NewRequest(tt.method, ts.URL+"/api/runs", strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)

			var e errorResp
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, generator.MockLLM{})
	postRun(t, ts, `{"transcript": "Short talk about X."}`)

	for _, path := range []string{"/healthz", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + path)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "repurpose_runs_total")
}
