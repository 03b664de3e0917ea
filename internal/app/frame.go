package service

import (
	"time"

	"github.com/okian/beeline/internal/domain/chart"
	"github.com/okian/beeline/internal/domain/model"
)

// State is the controller's position in the render cycle.
type State string

// Controller states.
const (
	StateIdle        State = "idle"
	StateRecomputing State = "recomputing"
	StateRendered    State = "rendered"
)

// Frame is one published set of the four chart slots. Frames are replaced
// whole; a reader never sees slots from two different cycles.
type Frame struct {
	ID          string     `json:"id"`
	Version     uint64     `json:"version"`
	SelectionID string     `json:"selectionId"`
	Year        int        `json:"year"`
	Map         chart.Spec `json:"map"`
	Yearly      chart.Spec `json:"yearly"`
	States      chart.Spec `json:"states"`
	Causes      chart.Spec `json:"causes"`
	RenderedAt  time.Time  `json:"renderedAt"`
}

// Views are the aggregated inputs of one frame.
type Views struct {
	Year   int
	Slice  []model.Observation
	Yearly []model.Observation
	States []model.Observation
	Causes []model.Observation
}

// CycleError records a failed cycle.
type CycleError struct {
	Seq  uint64
	Year int
	Err  error
	At   time.Time
}

func (e *CycleError) Error() string { return e.Err.Error() }

func (e *CycleError) Unwrap() error { return e.Err }
