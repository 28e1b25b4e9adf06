package pipeline

import "fmt"

// State is a step of a pipeline run
type State int

const (
	Idle State = iota
	TransformingBbox
	SelectingZoom
	FetchingTiles
	Stitching
	Encoding
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case TransformingBbox:
		return "transforming bbox"
	case SelectingZoom:
		return "selecting zoom"
	case FetchingTiles:
		return "fetching tiles"
	case Stitching:
		return "stitching"
	case Encoding:
		return "encoding"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StageError names the stage that aborted a run and wraps the component error
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
