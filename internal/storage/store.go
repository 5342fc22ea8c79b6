package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/planets/internal/universe"
)

// Store keeps recorded runs, one directory per run holding metadata.json and
// frames.csv.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Source        string             `json:"source"`
	Timestamp     time.Time          `json:"timestamp"`
	Seed          uint64             `json:"seed"`
	Frames        int                `json:"frames"`
	FrameMicros   int64              `json:"frame_micros"`
	StepsPerFrame int                `json:"steps_per_frame"`
	Speed         float64            `json:"speed"`
	Workers       int                `json:"workers"`
	InitialBodies int                `json:"initial_bodies"`
	FinalBodies   int                `json:"final_bodies"`
	Metrics       map[string]float64 `json:"metrics"`
}

var csvHeader = []string{"frame", "time", "id", "x", "y", "z", "vx", "vy", "vz", "mass"}

// Save writes a new run and returns its id. meta.ID and meta.Timestamp are
// filled in.
func (s *Store) Save(meta RunMetadata, frames []Frame) (string, error) {
	meta.Timestamp = time.Now()
	runID := fmt.Sprintf("%s_%d", meta.Source, meta.Timestamp.Unix())
	for n := 1; ; n++ {
		if _, err := os.Stat(filepath.Join(s.baseDir, runID)); errors.Is(err, os.ErrNotExist) {
			break
		}
		runID = fmt.Sprintf("%s_%d_%d", meta.Source, meta.Timestamp.Unix(), n)
	}
	meta.ID = runID

	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "frames.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteFramesCSV(csvFile, frames); err != nil {
		return "", err
	}
	return runID, nil
}

func WriteFramesCSV(w io.Writer, frames []Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, f := range frames {
		for _, b := range f.Bodies {
			row := []string{
				strconv.Itoa(f.Index),
				format(f.Time),
				strconv.FormatUint(uint64(b.ID), 10),
				format(b.Position.X()), format(b.Position.Y()), format(b.Position.Z()),
				format(b.Velocity.X()), format(b.Velocity.Y()), format(b.Velocity.Z()),
				format(b.Mass),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// List returns the stored runs, newest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	slices.SortFunc(runs, func(a, b RunMetadata) int { return b.Timestamp.Compare(a.Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: run %s metadata: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadFrames(runID string) ([]Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "frames.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadFramesCSV(file)
}

// ReadFramesCSV groups rows by frame index. Rows of one frame must be
// contiguous.
func ReadFramesCSV(r io.Reader) ([]Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: read frames: %w", err)
	}
	if len(records) < 2 {
		return nil, ErrNoFrames
	}

	var frames []Frame
	for line, rec := range records[1:] {
		var nums [7]float64
		for i := range nums {
			if nums[i], err = strconv.ParseFloat(rec[i+3], 64); err != nil {
				return nil, fmt.Errorf("storage: frames line %d: %w", line+2, err)
			}
		}
		index, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("storage: frames line %d: %w", line+2, err)
		}
		t, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("storage: frames line %d: %w", line+2, err)
		}
		id, err := strconv.ParseUint(rec[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("storage: frames line %d: %w", line+2, err)
		}

		if len(frames) == 0 || frames[len(frames)-1].Index != index {
			frames = append(frames, Frame{Index: index, Time: t})
		}
		f := &frames[len(frames)-1]
		f.Bodies = append(f.Bodies, BodySample{
			ID:       universe.ID(id),
			Position: mgl64.Vec3{nums[0], nums[1], nums[2]},
			Velocity: mgl64.Vec3{nums[3], nums[4], nums[5]},
			Mass:     nums[6],
			Radius:   universe.RadiusForMass(nums[6]),
		})
	}
	return frames, nil
}
