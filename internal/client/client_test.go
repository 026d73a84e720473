package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmchat/pkg/chattypes"
)

func TestClient_GenerateTextBranch(t *testing.T) {
	var gotForm map[string]string
	var fileSeen bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/generate", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		gotForm = make(map[string]string)
		for key, values := range r.MultipartForm.Value {
			gotForm[key] = values[0]
		}
		fileSeen = len(r.MultipartForm.File) > 0

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","messages":[{"role":"user","content":"Hello"},{"role":"assistant","content":"Hi there"}]}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	resp, err := c.Generate(context.Background(), chattypes.GenerateRequest{
		ThreadID:     "t1",
		Messages:     []chattypes.Message{{Role: chattypes.RoleUser, Content: "Hello"}},
		MaxNewTokens: 4096,
		Temperature:  0.7,
	})
	require.NoError(t, err)

	assert.Equal(t, "ok", resp.Status)
	last, ok := resp.LastMessage()
	require.True(t, ok)
	assert.Equal(t, chattypes.RoleAssistant, last.Role)
	assert.Equal(t, "Hi there", last.Content)

	assert.Equal(t, "t1", gotForm["thread_id"])
	assert.Equal(t, "4096", gotForm["max_new_tokens"])
	assert.Equal(t, "0.7", gotForm["temperature"])
	assert.False(t, fileSeen)

	var messages []chattypes.Message
	require.NoError(t, json.Unmarshal([]byte(gotForm["messages"]), &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, chattypes.Message{Role: chattypes.RoleUser, Content: "Hello"}, messages[0])
}

func TestClient_GenerateFileBranchOmitsMessages(t *testing.T) {
	var gotForm map[string][]string
	var fileName, fileType, fileContent string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotForm = r.MultipartForm.Value

		files := r.MultipartForm.File["file"]
		require.Len(t, files, 1)
		fileName = files[0].Filename
		fileType = files[0].Header.Get("Content-Type")

		opened, err := files[0].Open()
		require.NoError(t, err)
		defer func() { _ = opened.Close() }()
		data, err := io.ReadAll(opened)
		require.NoError(t, err)
		fileContent = string(data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","messages":[{"role":"assistant","content":"parsed"}]}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	_, err := c.Generate(context.Background(), chattypes.GenerateRequest{
		ThreadID: "t1",
		File: &chattypes.Attachment{
			Name:        "report.docx",
			ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			Data:        []byte("doc-bytes"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "report.docx", fileName)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", fileType)
	assert.Equal(t, "doc-bytes", fileContent)

	_, hasMessages := gotForm["messages"]
	assert.False(t, hasMessages, "file branch must not carry the messages field")
	_, hasImage := gotForm["image_base64"]
	assert.False(t, hasImage)
}

func TestClient_GenerateOmitsThreadIDWhenThreadless(t *testing.T) {
	var gotForm map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotForm = r.MultipartForm.Value
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","messages":[]}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	_, err := c.Generate(context.Background(), chattypes.GenerateRequest{
		Messages: []chattypes.Message{{Role: chattypes.RoleUser, Content: "Hello"}},
	})
	require.NoError(t, err)

	_, hasThread := gotForm["thread_id"]
	assert.False(t, hasThread)
}

func TestClient_GenerateNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	_, err := c.Generate(context.Background(), chattypes.GenerateRequest{
		Messages: []chattypes.Message{{Role: chattypes.RoleUser, Content: "Hello"}},
	})
	require.Error(t, err)

	var transportErr *chattypes.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusInternalServerError, transportErr.StatusCode)
}

func TestClient_GenerateMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	_, err := c.Generate(context.Background(), chattypes.GenerateRequest{
		Messages: []chattypes.Message{{Role: chattypes.RoleUser, Content: "Hello"}},
	})

	var transportErr *chattypes.TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestClient_FetchThread(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/threads/t1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"role":"user","content":"hello"},{"role":"assistant","content":"hi"}]}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	messages, err := c.FetchThread(context.Background(), "t1")
	require.NoError(t, err)

	require.Len(t, messages, 2)
	assert.Equal(t, "hello", messages[0].Content)
	assert.Equal(t, chattypes.RoleAssistant, messages[1].Role)
}

func TestClient_FetchThreadNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such thread", http.StatusNotFound)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	_, err := c.FetchThread(context.Background(), "missing")

	var transportErr *chattypes.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusNotFound, transportErr.StatusCode)
	assert.Equal(t, "fetch_thread", transportErr.Op)
}
