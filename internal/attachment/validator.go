// Package attachment validates candidate files before they enter the
// pending draft. Only the declared MIME type is checked; content sniffing is
// deliberately out of scope and the allow-list is not a security boundary.
package attachment

import (
	"fmt"

	"mmchat/internal/logger"
	"mmchat/pkg/chattypes"
)

// RejectionReason is the user-facing advisory shown when a file's declared
// content type is not allow-listed.
const RejectionReason = "only images or office documents are accepted"

// allowedTypes is the fixed allow-list: common raster/vector image types and
// legacy plus OOXML office document types.
var allowedTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/bmp":     true,
	"image/webp":    true,
	"image/svg+xml": true,

	"application/msword":            true,
	"application/vnd.ms-excel":      true,
	"application/vnd.ms-powerpoint": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
}

// Validator checks a candidate file's declared content type against the
// allow-list. Rejection is advisory: it keeps the file out of the draft and
// is surfaced to the user, nothing throws.
type Validator struct{}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns nil when contentType is allow-listed and a
// *chattypes.ValidationError otherwise.
func (v *Validator) Validate(name, contentType string) error {
	if allowedTypes[contentType] {
		return nil
	}
	logger.Debug("attachment rejected", "name", name, "content_type", contentType)
	return &chattypes.ValidationError{
		Reason: fmt.Sprintf("%s: %s", RejectionReason, contentType),
	}
}

// IsImage reports whether contentType is one of the allow-listed image
// types. Used by the inline-image embed path, which accepts images only.
func (v *Validator) IsImage(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/bmp", "image/webp", "image/svg+xml":
		return true
	}
	return false
}
