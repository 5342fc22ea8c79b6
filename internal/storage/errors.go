package storage

import "errors"

var (
	ErrNotUniverse = errors.New("storage: not a planets universe file")
	ErrNoFrames    = errors.New("storage: run has no frames")
)
