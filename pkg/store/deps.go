package store

import (
	"context"

	"github.com/evanmoss/taskweave/pkg/depgraph"
	"github.com/evanmoss/taskweave/pkg/model"
)

// AddDependency creates a predecessor → successor ordering constraint.
// Self-loops and cycle-forming edges are rejected before any backend
// call; the local edge set changes only after the backend confirms.
func (s *Store) AddDependency(ctx context.Context, predecessorID, successorID string) error {
	edge := model.DependencyEdge{PredecessorID: predecessorID, SuccessorID: successorID}
	if err := edge.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	_, havePred := s.tasks[predecessorID]
	_, haveSucc := s.tasks[successorID]
	edges := append([]model.DependencyEdge(nil), s.edges...)
	s.mu.Unlock()

	if !havePred || !haveSucc {
		return model.ErrTaskNotFound
	}
	if depgraph.WouldCycle(edges, edge) {
		return model.ErrDependencyCycle
	}

	if err := s.backend.InsertEdge(ctx, edge); err != nil {
		return err
	}

	s.mu.Lock()
	s.edges = append(s.edges, edge)
	s.mu.Unlock()
	return nil
}

// RemoveDependency deletes an edge. As with creation, local state
// changes only after backend confirmation.
func (s *Store) RemoveDependency(ctx context.Context, predecessorID, successorID string) error {
	edge := model.DependencyEdge{PredecessorID: predecessorID, SuccessorID: successorID}
	if err := edge.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	found := false
	for _, e := range s.edges {
		if e == edge {
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		return model.ErrEdgeNotFound
	}

	if err := s.backend.DeleteEdge(ctx, edge); err != nil {
		return err
	}

	s.mu.Lock()
	kept := s.edges[:0:0]
	for _, e := range s.edges {
		if e != edge {
			kept = append(kept, e)
		}
	}
	s.edges = kept
	s.mu.Unlock()
	return nil
}
