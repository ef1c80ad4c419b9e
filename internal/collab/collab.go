// Package collab defines the external collaborators the core depends on and
// the adapters that implement them.
//
// The core never classifies content, stores bytes, signs tokens, or pushes
// notifications itself. It calls these interfaces through Do (or Call), which
// bounds each call by a caller-supplied timeout and reports any failure as an
// apperr COLLABORATOR error wrapping the cause.
package collab

import (
	"context"
	"time"

	"github.com/roach88/safeline/internal/apperr"
	"github.com/roach88/safeline/internal/model"
)

// Authenticator resolves a credential to a principal id.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (string, error)
}

// Classification is the classifier's verdict on a piece of content.
type Classification struct {
	ThreatType         model.ThreatType  `json:"threat_type"`
	ThreatLevel        model.ThreatLevel `json:"threat_level"`
	ConfidenceScore    float64           `json:"confidence_score"`
	Explanation        string            `json:"explanation"`
	RecommendedActions []string          `json:"recommended_actions"`
}

// Classifier scores content for threats. Its internals are opaque.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// FileMeta describes an upload.
type FileMeta struct {
	FileName string
	MimeType string
	OwnerID  string
}

// StoredFile is where and how an upload was stored.
type StoredFile struct {
	URL  string
	Hash string
	Size int64
}

// FileStorage persists evidence bytes and returns their location and digest.
type FileStorage interface {
	Store(ctx context.Context, data []byte, meta FileMeta) (StoredFile, error)
}

// Deliverer pushes a committed notification to its recipient.
type Deliverer interface {
	Deliver(ctx context.Context, n model.Notification) error
}

// VerifierAuthority decides who may verify professional profiles.
type VerifierAuthority interface {
	AuthorizeVerifier(ctx context.Context, principal string) bool
}

// Do runs fn with a deadline of timeout (none when timeout <= 0) and returns
// as soon as either fn finishes or the deadline passes. Failures are wrapped
// as apperr.Collaborator(name, cause).
//
// fn receives the bounded context and must honor it; Do does not wait for
// an fn that ignores cancellation.
func Do[T any](ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v: v, err: err}
	}()

	var zero T
	select {
	case r := <-done:
		if r.err != nil {
			return zero, apperr.Collaborator(name, r.err)
		}
		return r.v, nil
	case <-ctx.Done():
		return zero, apperr.Collaborator(name, ctx.Err())
	}
}

// Call is Do for functions without a result.
func Call(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, timeout, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
