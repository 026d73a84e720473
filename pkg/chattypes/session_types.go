// Package chattypes defines the shared conversation and session types for mmchat.
// This file contains the core types for threads, messages, and the composing draft.
package chattypes

import "strings"

// Role values emitted by this client. The Role field itself stays an open
// string because the server may introduce sender kinds we do not know about.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single turn in a conversation history.
// Messages are immutable once created; ordering is append-only and
// insertion order is the display order.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Thread represents a named, independently persisted conversation session.
// Threads are never mutated after creation.
type Thread struct {
	ID    string `json:"id"`    // Opaque, time-derived, unique within the process
	Title string `json:"title"` // Display label, assigned sequentially at creation
}

// Session is the process-wide thread state: the ordered thread list and the
// id of the currently active thread ("" when none is active). It is hydrated
// from durable storage at startup and persisted after every mutation.
type Session struct {
	Threads        []Thread `json:"threads"`
	ActiveThreadID string   `json:"active_thread_id"`
}

// PendingDraft is the not-yet-submitted text/attachment pair the user is
// composing. It is transient and never persisted; a successful submission
// clears it.
type PendingDraft struct {
	Text        string
	Attachment  *Attachment
	ImageBase64 string // Inline image payload, base64 without data-URI prefix
}

// Attachment is a user-supplied binary file (image or office document) that
// has passed validation and is ready to be sent in place of the draft text.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Empty reports whether the draft carries nothing worth submitting:
// blank or whitespace-only text and no attachment. An inline image alone
// does not make a draft submittable; it only rides along with text.
func (d PendingDraft) Empty() bool {
	return strings.TrimSpace(d.Text) == "" && d.Attachment == nil
}
