// Package inmemory provides a process-local workflow.WorkflowStore, the
// default persistence backing for workflow.Executor in tests and single-node
// deployments.
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/HalfBloodPrince07/Vantage-sub000/workflow"
)

// Store is an in-memory workflow.WorkflowStore.
type Store struct {
	mu     sync.Mutex
	states map[string]workflow.WorkflowState
}

// New constructs an empty Store.
func New() *Store {
	return &Store{states: make(map[string]workflow.WorkflowState)}
}

func (s *Store) Save(_ context.Context, state workflow.WorkflowState) error {
	if state.WorkflowID == "" {
		return fmt.Errorf("inmemory: workflow ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.WorkflowID] = state
	return nil
}

func (s *Store) Load(_ context.Context, id string) (*workflow.WorkflowState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[id]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (s *Store) List(_ context.Context, filter workflow.WorkflowFilter) ([]workflow.WorkflowState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var results []workflow.WorkflowState
	for _, state := range s.states {
		if filter.Status != "" && state.Status != filter.Status {
			continue
		}
		results = append(results, state)
		if filter.Limit > 0 && len(results) >= filter.Limit {
			break
		}
	}
	return results, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, id)
	return nil
}

var _ workflow.WorkflowStore = (*Store)(nil)
