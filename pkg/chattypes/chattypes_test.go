package chattypes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingDraft_Empty(t *testing.T) {
	assert.True(t, PendingDraft{}.Empty())
	assert.True(t, PendingDraft{Text: "   \t\n"}.Empty())
	assert.True(t, PendingDraft{ImageBase64: "aGk="}.Empty(), "an inline image alone is not submittable")

	assert.False(t, PendingDraft{Text: "hello"}.Empty())
	assert.False(t, PendingDraft{Attachment: &Attachment{Name: "a.docx"}}.Empty())
}

func TestGenerateResponse_LastMessage(t *testing.T) {
	empty := &GenerateResponse{Status: "ok"}
	_, ok := empty.LastMessage()
	assert.False(t, ok)

	resp := &GenerateResponse{
		Status: "ok",
		Messages: []Message{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello"},
		},
	}
	last, ok := resp.LastMessage()
	require.True(t, ok)
	assert.Equal(t, RoleAssistant, last.Role)
	assert.Equal(t, "hello", last.Content)
}

func TestTransportError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &TransportError{Op: "generate", Err: cause}

	assert.Contains(t, err.Error(), "generate failed")
	assert.ErrorIs(t, err, cause)

	withStatus := &TransportError{Op: "fetch_thread", StatusCode: 404, Err: errors.New("server returned 404 Not Found")}
	assert.Contains(t, withStatus.Error(), "404")
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Reason: "only images or office documents are accepted"}
	assert.Equal(t, "only images or office documents are accepted", err.Error())
}
