// Package gateway is the narrow boundary to the reasoning engine that reads narrative
// text. Everything it returns has already been validated; callers never see raw
// provider output.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/inkforge-backend/internal/domain/knowledge"
	"github.com/yungbote/inkforge-backend/internal/platform/httpx"
)

var (
	ErrProviderUnavailable = errors.New("reasoning provider unavailable")
	ErrProviderTimeout     = errors.New("reasoning provider timed out")
)

type Gateway interface {
	Extract(ctx context.Context, text string) ([]knowledge.Observation, error)
	FindContradictions(ctx context.Context, text string, profiles []ProfileContext) ([]Finding, error)
	Transform(ctx context.Context, req TransformRequest) (TransformResult, error)
}

// ProfileContext is what the engine is told about one known character.
type ProfileContext struct {
	CharacterID uuid.UUID         `json:"character_id"`
	Name        string            `json:"name"`
	Profile     knowledge.Profile `json:"profile"`
	Evidence    []EvidenceContext `json:"evidence,omitempty"`
}

type EvidenceContext struct {
	Field   string `json:"field"`
	Snippet string `json:"snippet"`
}

// Finding is a candidate issue. The character reference is unresolved: either the id or
// the name may be set.
type Finding struct {
	CharacterID   string
	CharacterName string
	Kind          knowledge.IssueKind
	Description   string
	Snippets      []string
	PriorSnippet  string
	NewSnippet    string
}

type Scope string

const (
	ScopeSelection Scope = "selection"
	ScopeParagraph Scope = "paragraph"
	ScopeDocument  Scope = "document"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopeSelection, ScopeParagraph, ScopeDocument:
		return true
	}
	return false
}

type TransformRequest struct {
	Instruction    string
	Text           string
	Scope          Scope
	CharacterNames []string
	Profiles       []ProfileContext
}

type TransformResult struct {
	ReplacementText string `json:"replacementText"`
	Explanation     string `json:"explanation"`
}

// Classify maps a provider failure onto ErrProviderTimeout or ErrProviderUnavailable,
// keeping the cause in the chain. Caller cancellation passes through untouched.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrProviderTimeout) || errors.Is(err, ErrProviderUnavailable) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if httpx.IsTimeout(err) {
		return fmt.Errorf("%w: %w", ErrProviderTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
}

// IsRetryable reports whether err is a classified provider failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrProviderTimeout) || errors.Is(err, ErrProviderUnavailable)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
