// Package gatewaytest provides a scripted Gateway for tests.
package gatewaytest

import (
	"context"
	"sync"

	"github.com/yungbote/inkforge-backend/internal/domain/knowledge"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/gateway"
)

// Scripted returns canned answers and records what it was asked.
type Scripted struct {
	mu sync.Mutex

	Observations []knowledge.Observation
	Findings     []gateway.Finding
	Result       gateway.TransformResult
	Err          error
	// Block makes every call wait for ctx to end, for deadline tests.
	Block bool

	ExtractCalls       []string
	ContradictionCalls [][]gateway.ProfileContext
	TransformCalls     []gateway.TransformRequest
}

var _ gateway.Gateway = (*Scripted)(nil)

func (s *Scripted) wait(ctx context.Context) error {
	if !s.Block {
		return s.Err
	}
	<-ctx.Done()
	return gateway.Classify(ctx.Err())
}

func (s *Scripted) Extract(ctx context.Context, text string) ([]knowledge.Observation, error) {
	s.mu.Lock()
	s.ExtractCalls = append(s.ExtractCalls, text)
	out := append([]knowledge.Observation(nil), s.Observations...)
	s.mu.Unlock()
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Scripted) FindContradictions(ctx context.Context, _ string, profiles []gateway.ProfileContext) ([]gateway.Finding, error) {
	s.mu.Lock()
	s.ContradictionCalls = append(s.ContradictionCalls, profiles)
	out := append([]gateway.Finding(nil), s.Findings...)
	s.mu.Unlock()
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Scripted) Transform(ctx context.Context, req gateway.TransformRequest) (gateway.TransformResult, error) {
	s.mu.Lock()
	s.TransformCalls = append(s.TransformCalls, req)
	res := s.Result
	s.mu.Unlock()
	if err := s.wait(ctx); err != nil {
		return gateway.TransformResult{}, err
	}
	return res, nil
}

func (s *Scripted) Calls() (extract, contradictions, transform int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ExtractCalls), len(s.ContradictionCalls), len(s.TransformCalls)
}
