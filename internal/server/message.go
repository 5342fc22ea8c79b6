package server

import (
	"encoding/json"
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/planets/internal/universe"
)

var (
	ErrUnknownCommand = errors.New("server: unknown command")
	ErrBadPayload     = errors.New("server: malformed command payload")
	ErrTooManyBodies  = errors.New("server: body limit reached")
	ErrRateLimited    = errors.New("server: rate limit exceeded")
)

// Message types sent to clients.
const (
	TypeSnapshot = "snapshot"
	TypeAck      = "ack"
	TypeError    = "error"
)

// Command types accepted from clients.
const (
	CmdAdd      = "add"
	CmdRemove   = "remove"
	CmdClear    = "clear"
	CmdRandom   = "random"
	CmdOrbital  = "orbital"
	CmdSelect   = "select"
	CmdSpeed    = "speed"
	CmdCenter   = "center"
	CmdEscapees = "escapees"
	CmdFire     = "fire"
)

var knownCommands = map[string]bool{
	CmdAdd: true, CmdRemove: true, CmdClear: true, CmdRandom: true, CmdOrbital: true,
	CmdSelect: true, CmdSpeed: true, CmdCenter: true, CmdEscapees: true, CmdFire: true,
}

// metricLabel keeps client supplied command names out of metric labels.
func metricLabel(kind string) string {
	if knownCommands[kind] {
		return kind
	}
	return "unknown"
}

// Envelope is an incoming command. ID is echoed back in the reply.
type Envelope struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message is an outgoing frame.
type Message struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Data any    `json:"data,omitempty"`
}

type errorData struct {
	Command string `json:"command,omitempty"`
	Message string `json:"message"`
}

// AddData creates a body. Velocity is in UI units.
type AddData struct {
	Position mgl64.Vec3 `json:"position"`
	Velocity mgl64.Vec3 `json:"velocity"`
	Mass     float64    `json:"mass"`
}

type IDData struct {
	ID universe.ID `json:"id"`
}

type CountData struct {
	Count int `json:"count"`
}

type OrbitalData struct {
	Count  int         `json:"count"`
	Target universe.ID `json:"target"`
}

type SpeedData struct {
	Speed float64 `json:"speed"`
}

// FireData launches a body from Origin along Direction. Zero speed or mass
// fall back to the configured firing settings.
type FireData struct {
	Origin    mgl64.Vec3 `json:"origin"`
	Direction mgl64.Vec3 `json:"direction"`
	Speed     float64    `json:"speed,omitempty"`
	Mass      float64    `json:"mass,omitempty"`
}

// Result is the payload of an ack.
type Result struct {
	Command string        `json:"command"`
	IDs     []universe.ID `json:"ids,omitempty"`
	Removed int           `json:"removed,omitempty"`
	Bodies  int           `json:"bodies"`
}
