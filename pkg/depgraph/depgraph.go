// Package depgraph analyzes ordering dependencies between tasks:
// scheduling conflicts along edges and level assignment for laying a
// dependency graph out as a DAG.
package depgraph

import (
	"log/slog"
	"time"

	"github.com/evanmoss/taskweave/pkg/model"
)

// WarningKind discriminates dependency warnings.
type WarningKind string

const (
	// WarnSchedule means a predecessor's planned end overlaps the
	// task's planned start.
	WarnSchedule WarningKind = "schedule"
	// WarnUnplanned means the task is scheduled but a predecessor has
	// no planned end at all.
	WarnUnplanned WarningKind = "unplanned"
)

// Warning describes one problem with a task's predecessors.
type Warning struct {
	Kind             WarningKind
	PredecessorID    string
	PredecessorTitle string
	PredecessorEnd   *time.Time // set for schedule warnings
	TaskStart        *time.Time
}

// Warnings inspects every edge ending at task and reports ordering
// problems with its predecessors. The two checks are independent; a
// predecessor's status alone never produces a warning. Edges whose
// predecessor record is missing are logged and skipped.
func Warnings(task *model.Task, tasks map[string]*model.Task, edges []model.DependencyEdge, log *slog.Logger) []Warning {
	if log == nil {
		log = slog.Default()
	}

	var warnings []Warning
	for _, e := range edges {
		if e.SuccessorID != task.ID {
			continue
		}
		pred, ok := tasks[e.PredecessorID]
		if !ok {
			log.Warn("dangling dependency edge", "predecessor", e.PredecessorID, "successor", e.SuccessorID)
			continue
		}

		if pred.PlannedEnd != nil && task.PlannedStart != nil && pred.PlannedEnd.After(*task.PlannedStart) {
			warnings = append(warnings, Warning{
				Kind:             WarnSchedule,
				PredecessorID:    pred.ID,
				PredecessorTitle: pred.Title,
				PredecessorEnd:   pred.PlannedEnd,
				TaskStart:        task.PlannedStart,
			})
		}
		if pred.PlannedEnd == nil && task.PlannedStart != nil {
			warnings = append(warnings, Warning{
				Kind:             WarnUnplanned,
				PredecessorID:    pred.ID,
				PredecessorTitle: pred.Title,
				TaskStart:        task.PlannedStart,
			})
		}
	}
	return warnings
}

// Levels assigns a layout level to every visible task: 0 for tasks
// with no in-scope predecessor, otherwise one plus the maximum level
// among in-scope predecessors. Only edges with both endpoints in
// visible count.
//
// Cycles are not a valid graph state; edge creation rejects them. For
// data that predates that check the walk guards against revisiting a
// node on the current path and truncates it at level 0 instead of
// recursing forever.
func Levels(visible map[string]*model.Task, edges []model.DependencyEdge) map[string]int {
	preds := make(map[string][]string)
	for _, e := range edges {
		if _, ok := visible[e.PredecessorID]; !ok {
			continue
		}
		if _, ok := visible[e.SuccessorID]; !ok {
			continue
		}
		preds[e.SuccessorID] = append(preds[e.SuccessorID], e.PredecessorID)
	}

	levels := make(map[string]int, len(visible))
	onPath := make(map[string]bool)

	var walk func(id string) int
	walk = func(id string) int {
		if lvl, ok := levels[id]; ok {
			return lvl
		}
		if onPath[id] {
			return 0
		}
		onPath[id] = true
		defer delete(onPath, id)

		highest := -1
		for _, p := range preds[id] {
			if lvl := walk(p); lvl > highest {
				highest = lvl
			}
		}
		levels[id] = highest + 1
		return highest + 1
	}

	for id := range visible {
		walk(id)
	}
	return levels
}

// WouldCycle reports whether adding candidate to edges creates a path
// from some task back to itself. It walks successor-wards from the
// candidate's successor looking for the candidate's predecessor.
func WouldCycle(edges []model.DependencyEdge, candidate model.DependencyEdge) bool {
	succs := make(map[string][]string)
	for _, e := range edges {
		succs[e.PredecessorID] = append(succs[e.PredecessorID], e.SuccessorID)
	}

	seen := make(map[string]bool)
	stack := []string{candidate.SuccessorID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == candidate.PredecessorID {
			return true
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, succs[id]...)
	}
	return false
}
