package metrics

import (
	"log/slog"

	"github.com/san-kum/planets/internal/universe"
)

// LogObserver writes universe events to a structured logger.
type LogObserver struct {
	log *slog.Logger
}

func NewLogObserver(log *slog.Logger) *LogObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LogObserver{log: log.With("component", "universe")}
}

func (l *LogObserver) OnMerge(e universe.MergeEvent) {
	l.log.Debug("bodies merged",
		"survivor", e.Survivor,
		"absorbed", e.Absorbed,
		"mass", e.Mass,
	)
}

func (l *LogObserver) OnAdvance(e universe.AdvanceEvent) {
	if e.Merges == 0 {
		return
	}
	l.log.Debug("frame advanced", "merges", e.Merges, "bodies", e.Bodies, "dt", e.Dt)
}
