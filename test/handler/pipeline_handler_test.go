package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Pallavikumarimdb/VexonAI/internal/pkg/errcode"
)

type apiResponse struct {
	Code uint32                 `json:"code"`
	Msg  string                 `json:"msg"`
	Data map[string]interface{} `json:"data"`
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeResponse(t *testing.T, resp *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var out apiResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func TestPipelineEndToEnd(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	resp := doJSON(t, router, http.MethodPost, "/api/v1/projects", map[string]string{
		"name":         "widgets",
		"github_url":   "https://github.com/acme/widgets",
		"github_token": "tok",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	created := decodeResponse(t, resp)
	projectID, _ := created.Data["id"].(string)
	require.NotEmpty(t, projectID)

	resp = doJSON(t, router, http.MethodPost, "/api/v1/projects/"+projectID+"/ingest", map[string]string{})
	require.Equal(t, http.StatusOK, resp.Code)
	ingested := decodeResponse(t, resp)
	require.Equal(t, float64(1), ingested.Data["total"])
	require.Equal(t, float64(1), ingested.Data["embedded"])

	resp = doJSON(t, router, http.MethodPost, "/api/v1/projects/"+projectID+"/commits/sync", map[string]string{})
	require.Equal(t, http.StatusOK, resp.Code)
	synced := decodeResponse(t, resp)
	require.Equal(t, float64(2), synced.Data["inserted"])

	// replay must not duplicate anything
	resp = doJSON(t, router, http.MethodPost, "/api/v1/projects/"+projectID+"/commits/sync", map[string]string{})
	require.Equal(t, float64(0), decodeResponse(t, resp).Data["inserted"])

	resp = doJSON(t, router, http.MethodGet, "/api/v1/projects/"+projectID+"/commits", nil)
	listed := decodeResponse(t, resp)
	commits, _ := listed.Data["commits"].([]interface{})
	require.Len(t, commits, 2)
	first, _ := commits[0].(map[string]interface{})
	require.Equal(t, "c1", first["commit_hash"])
	require.Equal(t, "scripted summary", first["summary"])
}

func TestAskStreamsAnswerWithReferences(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	resp := doJSON(t, router, http.MethodPost, "/api/v1/projects", map[string]string{
		"name":         "widgets",
		"github_url":   "https://github.com/acme/widgets",
		"github_token": "tok",
	})
	projectID, _ := decodeResponse(t, resp).Data["id"].(string)
	require.NotEmpty(t, projectID)

	resp = doJSON(t, router, http.MethodPost, "/api/v1/projects/"+projectID+"/ingest", map[string]string{})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doJSON(t, router, http.MethodPost, "/api/v1/projects/"+projectID+"/questions", map[string]string{
		"question": "what does main.go do?",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "text/event-stream", resp.Header().Get("Content-Type"))
	body := resp.Body.String()
	require.Contains(t, body, "event:references")
	require.Contains(t, body, "main.go")
	require.Contains(t, body, "event:chunk")
	require.Contains(t, body, "Hello")
	require.Contains(t, body, "event:done")

	resp = doJSON(t, router, http.MethodPost, "/api/v1/projects/"+projectID+"/questions/save", map[string]interface{}{
		"user_id":  "user-1",
		"question": "what does main.go do?",
		"answer":   "**It runs.**",
		"file_references": []map[string]interface{}{
			{"file_name": "main.go", "source_code": "package main", "summary": "entrypoint", "similarity": 0.9},
		},
	})
	require.Equal(t, http.StatusOK, resp.Code)
	saved := decodeResponse(t, resp)
	questionID, _ := saved.Data["id"].(string)
	require.NotEmpty(t, questionID)

	resp = doJSON(t, router, http.MethodGet, "/api/v1/questions/"+questionID+"?render=html", nil)
	rendered := decodeResponse(t, resp)
	answerHTML, _ := rendered.Data["answer_html"].(string)
	require.Contains(t, answerHTML, "<strong>It runs.</strong>")
}

func TestUnknownProjectErrors(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	resp := doJSON(t, router, http.MethodGet, "/api/v1/projects/does-not-exist", nil)
	require.Equal(t, uint32(errcode.ErrNotFound), decodeResponse(t, resp).Code)

	resp = doJSON(t, router, http.MethodPost, "/api/v1/projects/does-not-exist/commits/sync", map[string]string{})
	require.Equal(t, uint32(errcode.ErrNotFound), decodeResponse(t, resp).Code)

	resp = doJSON(t, router, http.MethodPost, "/api/v1/projects", map[string]string{
		"name":       "bad",
		"github_url": "not-a-url",
	})
	require.Equal(t, uint32(errcode.ErrInvalid), decodeResponse(t, resp).Code)
}
