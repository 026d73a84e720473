// Package pipeline assembles outbound requests from the pending draft,
// dispatches them to the remote generation endpoint, and reconciles the
// response into the conversation cache.
package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"mmchat/internal/attachment"
	"mmchat/internal/logger"
	"mmchat/internal/testutils"
	"mmchat/pkg/chattypes"
)

// ActiveThreadProvider reports the currently active thread id. Satisfied by
// the thread store.
type ActiveThreadProvider interface {
	ActiveID() string
}

// HistoryAppender receives the reconciled messages of a successful
// submission. Satisfied by the conversation cache.
type HistoryAppender interface {
	Append(threadID string, messages ...chattypes.Message)
}

// GenerationParams are the tuning fields sent with every request.
type GenerationParams struct {
	MaxNewTokens int
	Temperature  float64
}

// Pipeline owns the pending draft and drives submissions. The single
// suspension point is the Generate call; everything before and after runs
// to completion. At most one submission per thread may be in flight.
type Pipeline struct {
	mu        sync.Mutex
	generator chattypes.Generator
	threads   ActiveThreadProvider
	cache     HistoryAppender
	validator *attachment.Validator
	params    GenerationParams

	draft    chattypes.PendingDraft
	inFlight map[string]bool
	testMode bool
	log      *log.Logger
}

// New creates a submission pipeline. All collaborators are injected; the
// pipeline holds no global state.
func New(generator chattypes.Generator, threads ActiveThreadProvider, cache HistoryAppender, validator *attachment.Validator, params GenerationParams) *Pipeline {
	return &Pipeline{
		generator: generator,
		threads:   threads,
		cache:     cache,
		validator: validator,
		params:    params,
		inFlight:  make(map[string]bool),
		log:       logger.NewStyledLogger("Pipeline"),
	}
}

// SetTestMode switches the pipeline to deterministic submission ids.
func (p *Pipeline) SetTestMode(testMode bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.testMode = testMode
}

// SetText replaces the draft text.
func (p *Pipeline) SetText(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft.Text = text
}

// Attach validates the candidate file and, if accepted, places it in the
// draft. A rejected file leaves the draft unchanged; the returned
// ValidationError is advisory and meant for the user.
func (p *Pipeline) Attach(name, contentType string, data []byte) error {
	if err := p.validator.Validate(name, contentType); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft.Attachment = &chattypes.Attachment{
		Name:        name,
		ContentType: contentType,
		Data:        data,
	}
	return nil
}

// EmbedImage encodes an image into the draft's inline base64 payload (no
// data-URI prefix). Non-image content types are rejected.
func (p *Pipeline) EmbedImage(name, contentType string, data []byte) error {
	if !p.validator.IsImage(contentType) {
		return &chattypes.ValidationError{
			Reason: fmt.Sprintf("only images can be embedded inline: %s", contentType),
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft.ImageBase64 = base64.StdEncoding.EncodeToString(data)
	p.log.Debug("inline image embedded", "name", name, "bytes", len(data))
	return nil
}

// Draft returns a snapshot of the pending draft.
func (p *Pipeline) Draft() chattypes.PendingDraft {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.draft
}

// ClearDraft discards the pending draft.
func (p *Pipeline) ClearDraft() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft = chattypes.PendingDraft{}
}

// Submit dispatches the pending draft to the remote endpoint and returns
// the server's status string.
//
// The active thread id is captured at entry: a response that arrives after
// the user has switched threads is still applied to the thread that was
// active when the submission started.
//
// On failure the draft is left intact and the cache untouched, so no typed
// input is lost and no partial result is applied.
func (p *Pipeline) Submit(ctx context.Context) (string, error) {
	p.mu.Lock()
	draft := p.draft
	if draft.Empty() {
		p.mu.Unlock()
		return "", chattypes.ErrEmptyInput
	}

	threadID := p.threads.ActiveID()
	if p.inFlight[threadID] {
		p.mu.Unlock()
		return "", chattypes.ErrSubmissionInFlight
	}
	p.inFlight[threadID] = true
	submissionID := testutils.GenerateSubmissionID(p.testMode)
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.inFlight, threadID)
		p.mu.Unlock()
	}()

	req := p.assembleRequest(threadID, draft)
	p.log.Debug("submitting draft",
		"submission", submissionID,
		"thread", threadID,
		"branch", branchName(req))

	resp, err := p.generator.Generate(ctx, req)
	if err != nil {
		p.log.Error("submission failed", "submission", submissionID, "thread", threadID, "error", err)
		return "", err
	}

	reply, ok := resp.LastMessage()
	if !ok {
		err := &chattypes.TransportError{
			Op:  "generate",
			Err: fmt.Errorf("response carried no messages"),
		}
		p.log.Error("submission failed", "submission", submissionID, "thread", threadID, "error", err)
		return "", err
	}

	// The user message is appended as locally known, not as echoed by the
	// server. In the attachment branch the typed text was never sent, but
	// it is still what the user composed.
	userMessage := chattypes.Message{Role: chattypes.RoleUser, Content: draft.Text}
	p.cache.Append(threadID, userMessage, reply)

	p.mu.Lock()
	p.draft = chattypes.PendingDraft{}
	p.mu.Unlock()

	p.log.Debug("submission reconciled", "submission", submissionID, "thread", threadID, "status", resp.Status)
	return resp.Status, nil
}

// assembleRequest builds the outbound payload. A file attachment supersedes
// the text field: the typed text is not sent when a file is present. This
// mirrors the upstream protocol, where "file" and "messages" are mutually
// exclusive form fields.
func (p *Pipeline) assembleRequest(threadID string, draft chattypes.PendingDraft) chattypes.GenerateRequest {
	req := chattypes.GenerateRequest{
		ThreadID:     threadID,
		MaxNewTokens: p.params.MaxNewTokens,
		Temperature:  p.params.Temperature,
	}

	if draft.Attachment != nil {
		req.File = draft.Attachment
		return req
	}

	req.Messages = []chattypes.Message{{Role: chattypes.RoleUser, Content: draft.Text}}
	req.ImageBase64 = draft.ImageBase64
	return req
}

func branchName(req chattypes.GenerateRequest) string {
	if req.File != nil {
		return "file"
	}
	if req.ImageBase64 != "" {
		return "text+image"
	}
	return "text"
}
