// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okReply = `{
	"content": "Hi",
	"collection_name": "c1",
	"user_facing_collection_name": "Docs",
	"sources": null,
	"instructions": null,
	"scheduled_queries_str": null
}`

// =============================================================================
// URL NORMALIZATION TESTS
// =============================================================================

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://localhost:5000", "http://localhost:5000"},
		{"http://localhost:5000/", "http://localhost:5000"},
		{"http://localhost:5000///", "http://localhost:5000"},
		{"  https://ddg.example.com/api/ ", "https://ddg.example.com/api"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, NormalizeBaseURL(tc.in), "input %q", tc.in)
	}
}

func TestClient_Endpoint(t *testing.T) {
	c := NewClient("http://localhost:5000/")
	assert.Equal(t, "http://localhost:5000/chat", c.Endpoint(ChatPath))
	assert.Equal(t, "http://localhost:5000/ingest", c.Endpoint(IngestPath))
}

// =============================================================================
// CHAT ENDPOINT TESTS
// =============================================================================

func TestClient_Chat(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(okReply))
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")
	resp, err := client.Chat(context.Background(), &Payload{
		Message:     "Hello",
		APIKey:      "key",
		ChatHistory: EncodeHistory(nil),
	})
	require.NoError(t, err)

	assert.Equal(t, "/chat", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "Hello", gotBody["message"])
	assert.Equal(t, []any{}, gotBody["chat_history"])

	assert.Equal(t, "Hi", resp.Content)
	assert.Equal(t, "c1", resp.CollectionName)
	assert.Equal(t, "Docs", resp.UserFacingCollectionName)
	assert.Nil(t, resp.Sources)
}

func TestClient_Ingest(t *testing.T) {
	var gotPath string
	var gotFiles []string
	var gotMessage string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		for _, fh := range r.MultipartForm.File[FilesField] {
			gotFiles = append(gotFiles, fh.Filename)
		}
		gotMessage = r.FormValue("message")
		w.Write([]byte(okReply))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Ingest(context.Background(), &Payload{Message: "summarize"}, []Attachment{
		{Name: "a.txt", Data: []byte("alpha")},
		{Name: "b.txt", Data: []byte("beta")},
	})
	require.NoError(t, err)

	assert.Equal(t, "/ingest", gotPath)
	assert.Equal(t, []string{"a.txt", "b.txt"}, gotFiles)
	assert.Equal(t, `"summarize"`, gotMessage)
}

// =============================================================================
// ERROR HANDLING TESTS
// =============================================================================

func TestClient_HTTPErrorWithMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"rate limited"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Chat(context.Background(), &Payload{Message: "x"})
	require.Error(t, err)
	assert.Equal(t, "HTTP error, status: 429\nrate limited", err.Error())
	assert.True(t, IsStatus(err, http.StatusTooManyRequests))

	var herr *HTTPError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, "rate limited", herr.Message)
}

func TestClient_HTTPErrorMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>upstream exploded</html>"))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Chat(context.Background(), &Payload{Message: "x"})
	require.Error(t, err)
	assert.Equal(t, "HTTP error, status: 500", err.Error())
}

func TestClient_HTTPErrorJSONWithoutMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"nope"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Chat(context.Background(), &Payload{Message: "x"})
	require.Error(t, err)
	assert.Equal(t, "HTTP error, status: 400", err.Error())
}

func TestClient_MalformedSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Chat(context.Background(), &Payload{Message: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse response")
}

func TestClient_NotConfigured(t *testing.T) {
	_, err := NewClient("").Chat(context.Background(), &Payload{Message: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(server.URL).Chat(ctx, &Payload{Message: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_WithTimeoutDoesNotTouchSharedClient(t *testing.T) {
	before := sharedHTTPClient.Timeout
	c := NewClient("http://localhost").WithTimeout(time.Second)
	assert.Equal(t, time.Second, c.httpClient.Timeout)
	assert.Equal(t, before, sharedHTTPClient.Timeout)
}

func TestClient_WithTimeoutZeroRemovesBound(t *testing.T) {
	c := NewClient("http://localhost")
	assert.Equal(t, DefaultTimeout, c.Timeout())

	c = c.WithTimeout(0)
	assert.Zero(t, c.Timeout())
	assert.Equal(t, DefaultTimeout, sharedHTTPClient.Timeout)
}

func TestClient_NoRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Chat(context.Background(), &Payload{Message: "x"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestKeyFingerprint(t *testing.T) {
	assert.Equal(t, "none", KeyFingerprint(""))
	fp := KeyFingerprint("sk-secret-value")
	assert.Len(t, fp, 8)
	assert.Equal(t, fp, KeyFingerprint("sk-secret-value"))
	assert.NotEqual(t, fp, KeyFingerprint("sk-other-value"))
}
