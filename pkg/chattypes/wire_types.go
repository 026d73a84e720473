// Package chattypes defines the wire payloads exchanged with the remote
// generation endpoint.
package chattypes

// GenerateRequest describes one outbound call to POST /generate.
// Exactly one of the two branches is populated by the submission pipeline:
// either Messages (with optional ImageBase64) or File. The generation
// parameters ride along in both branches.
type GenerateRequest struct {
	ThreadID    string    // Active thread id at submission time; "" when threadless
	Messages    []Message // Text branch: JSON-encoded into the "messages" form field
	ImageBase64 string    // Text branch: optional inline image payload
	File        *Attachment

	MaxNewTokens int
	Temperature  float64
}

// GenerateResponse is the decoded body of a successful POST /generate call.
// The last entry of Messages is read as the new assistant turn.
type GenerateResponse struct {
	Status   string    `json:"status"`
	Messages []Message `json:"messages"`
}

// LastMessage returns the final message of the response and true, or a zero
// Message and false when the server returned an empty list.
func (r *GenerateResponse) LastMessage() (Message, bool) {
	if len(r.Messages) == 0 {
		return Message{}, false
	}
	return r.Messages[len(r.Messages)-1], true
}
