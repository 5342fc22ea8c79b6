package sim

import (
	"fmt"

	"github.com/san-kum/planets/internal/storage"
)

// Config describes a headless run: Frames frames of FrameMicros each,
// recording a snapshot every RecordEvery frames (0 disables recording).
type Config struct {
	Frames      int
	FrameMicros int64
	RecordEvery int
	Seed        uint64
}

// DefaultFrameMicros is one frame at 60 fps.
const DefaultFrameMicros = 16_667

func (c Config) validate() error {
	switch {
	case c.Frames < 1:
		return fmt.Errorf("%w: frames = %d", ErrInvalidConfig, c.Frames)
	case c.FrameMicros < 1:
		return fmt.Errorf("%w: frame_micros = %d", ErrInvalidConfig, c.FrameMicros)
	case c.RecordEvery < 0:
		return fmt.Errorf("%w: record_every = %d", ErrInvalidConfig, c.RecordEvery)
	}
	return nil
}

type Result struct {
	Frames        []storage.Frame
	Metrics       map[string]float64
	FramesRun     int
	Time          float64
	InitialBodies int
	FinalBodies   int
	Merges        int
}
