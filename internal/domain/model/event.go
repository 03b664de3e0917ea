// Package model contains domain models passed between layers.
package model

import "time"

// YearChanged is the single input of the reactive controller: the user
// picked a new year on the slider.
type YearChanged struct {
	ID          string    // unique id, echoed back on the frame that satisfied it
	Seq         uint64    // submission order; frames carry the last seq they cover
	Year        int       // selected year, always one of the table's years
	RequestedAt time.Time // when the selection was submitted
}
