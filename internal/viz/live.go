package viz

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/planets/internal/camera"
	"github.com/san-kum/planets/internal/metrics"
	"github.com/san-kum/planets/internal/placing"
	"github.com/san-kum/planets/internal/storage"
	"github.com/san-kum/planets/internal/universe"
)

const (
	defaultWidth    = 80
	defaultHeight   = 24
	statsWidth      = 45
	historyCapacity = 600

	// canvasStyle padding, in cells
	canvasLeft, canvasTop = 2, 1

	// longest frame fed to the simulation
	maxFrameTime = 100 * time.Millisecond
	// a key press counts as holding the stick for this long
	keyHoldMicros = 100_000
	// screen pixels per canvas dot, for pointer deltas
	pixelsPerDot = 4.0
	wheelStep    = 0.1
	keyRotate    = 10.0
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(canvasTop, canvasLeft)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(statsWidth)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	stageStyle  = lipgloss.NewStyle().Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

var stickKeys = map[string]mgl64.Vec2{
	"up": {0, 1}, "down": {0, -1}, "left": {-1, 0}, "right": {1, 0},
}

type TickMsg time.Time

// Options configures the live viewer.
type Options struct {
	FPS          int
	Theme        string
	SavePath     string
	GIFPath      string
	Random       universe.RandomParams
	OrbitalCount int
	Seed         uint64
	Logger       *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		FPS:          30,
		SavePath:     "universe.xml",
		GIFPath:      "planets.gif",
		Random:       universe.DefaultRandomParams(),
		OrbitalCount: 10,
	}
}

// Model is the bubbletea model of the live viewer. It owns the universe for
// the lifetime of the program.
type Model struct {
	u       *universe.Universe
	placing *placing.Interface
	cam     *camera.Camera
	scene   Scene
	opts    Options
	rng     *rand.Rand
	log     *slog.Logger

	width, height int
	running       bool
	last          time.Time
	fps           float64
	frames        int

	// last pointer position in canvas dots
	pointerX, pointerY int

	energyHistory []float64
	bodyHistory   []float64

	recording bool
	recorder  *Recorder
	showHelp  bool
	status    string
}

// NewModel builds a viewer over u. p must be bound to u.
func NewModel(u *universe.Universe, p *placing.Interface, opts Options) Model {
	def := DefaultOptions()
	if opts.FPS <= 0 {
		opts.FPS = def.FPS
	}
	if opts.SavePath == "" {
		opts.SavePath = def.SavePath
	}
	if opts.GIFPath == "" {
		opts.GIFPath = def.GIFPath
	}
	if opts.OrbitalCount <= 0 {
		opts.OrbitalCount = def.OrbitalCount
	}
	if opts.Theme != "" {
		SetTheme(opts.Theme)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	cam := camera.New()
	canvas := NewCanvas(defaultWidth, defaultHeight)
	w, h := canvas.Dots()
	return Model{
		u:             u,
		placing:       p,
		cam:           cam,
		scene:         Scene{Canvas: canvas, Camera: cam},
		opts:          opts,
		rng:           rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		log:           log.With("component", "viewer"),
		width:         defaultWidth,
		height:        defaultHeight,
		running:       true,
		pointerX:      w / 2,
		pointerY:      h / 2,
		energyHistory: make([]float64, 0, historyCapacity),
		bodyHistory:   make([]float64, 0, historyCapacity),
		recorder:      &Recorder{},
	}
}

func (m Model) frameTime() time.Duration { return time.Second / time.Duration(m.opts.FPS) }

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.frameTime(), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

// Update handles input events and advances the simulation on every tick.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		now := time.Time(msg)
		elapsed := m.frameTime()
		if !m.last.IsZero() {
			elapsed = min(now.Sub(m.last), maxFrameTime)
		}
		m.last = now
		m.step(elapsed)
		return m, m.tick()
	}
	return m, nil
}

// step advances the universe unless paused or staging a body, then refreshes
// the camera, histories and canvas.
func (m *Model) step(elapsed time.Duration) {
	if elapsed > 0 {
		m.fps = 0.9*m.fps + 0.1/elapsed.Seconds()
	}
	if m.running && !m.placing.PausesSimulation() {
		m.u.Advance(elapsed.Microseconds())
	}
	m.frames++
	m.cam.Update(m.u)

	s := metrics.Summarize(m.u)
	m.energyHistory = pushHistory(m.energyHistory, s.Energy())
	m.bodyHistory = pushHistory(m.bodyHistory, float64(s.Bodies))

	m.scene.Render(m.u, m.placing)
	if m.recording && !m.recorder.Capture(m.scene.Canvas) {
		m.stopRecording()
	}
}

func pushHistory(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	cw := max(w-statsWidth-2*canvasLeft-2, 20)
	ch := max(h-2*canvasTop, 8)
	m.scene.Canvas.Resize(cw, ch)
	dw, dh := m.scene.Canvas.Dots()
	m.pointerX, m.pointerY = min(m.pointerX, dw-1), min(m.pointerY, dh-1)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if stick, ok := stickKeys[key]; ok {
		m.stick(stick, false)
		return m, nil
	}
	if stick, ok := stickKeys[strings.TrimPrefix(key, "shift+")]; ok {
		m.stick(stick, true)
		return m, nil
	}

	switch key {
	case "q", "ctrl+c":
		if m.recording {
			m.stopRecording()
		}
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case "?":
		m.showHelp = !m.showHelp

	case "n":
		m.placing.BeginInteractiveCreation()
	case "o":
		if !m.placing.BeginOrbitalCreation() {
			m.status = "select a body to orbit first"
		}
	case "f":
		m.placing.EnableFiringMode(m.placing.Step != placing.Firing)
	case "esc":
		if !m.placing.Cancel() {
			m.u.ClearSelection()
		}
	case "enter":
		m.primary(m.pointerX, m.pointerY)
	case "+", "=":
		m.secondary(1)
	case "-", "_":
		m.secondary(-1)

	case "tab":
		m.cam.FollowNext(m.u)
	case "shift+tab":
		m.cam.FollowPrevious(m.u)
	case "F":
		m.cam.FollowSelection(m.u)
	case "0":
		m.cam.ClearFollow()
	case "m":
		m.cam.FollowPlainAverage()
	case "M":
		m.cam.FollowWeightedAverage()
	case "home":
		m.cam.Reset()

	case ",":
		m.u.SetSpeed(m.u.Speed() / 2)
	case ".":
		m.u.SetSpeed(m.u.Speed() * 2)
	case "r":
		m.generate()
	case "R":
		m.generateOrbital()
	case "c":
		m.u.CenterAll()
	case "x":
		m.status = fmt.Sprintf("removed %d escapees", m.u.RemoveEscapees())
	case "delete", "backspace":
		if !m.u.Remove(m.u.Selected()) {
			m.status = "nothing selected"
		}
	case "X":
		m.u.RemoveAll()

	case "ctrl+s":
		m.save()
	case "t":
		m.nextTheme()
	case "g":
		if m.recording {
			m.stopRecording()
		} else {
			m.recording = true
			m.status = "recording"
		}
	}
	return m, nil
}

// canvasDot maps a terminal cell to the dot at its center.
func canvasDot(col, row int) (int, int) {
	return (col-canvasLeft)*2 + 1, (row-canvasTop)*4 + 2
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	x, y := canvasDot(msg.X, msg.Y)
	switch msg.Action {
	case tea.MouseActionMotion:
		m.pointerMove(x, y, msg.Button == tea.MouseButtonLeft)
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.primary(x, y)
		case tea.MouseButtonRight:
			if !m.placing.Cancel() {
				m.u.ClearSelection()
			}
		case tea.MouseButtonWheelUp:
			m.secondary(1)
		case tea.MouseButtonWheelDown:
			m.secondary(-1)
		}
	}
}

// pointerMove feeds the placement first and rotates the camera on an
// unconsumed drag.
func (m *Model) pointerMove(x, y int, dragging bool) {
	dx, dy := float64(x-m.pointerX)*pixelsPerDot, float64(y-m.pointerY)*pixelsPerDot
	m.pointerX, m.pointerY = x, y

	ptr := placing.Pointer{Ray: m.scene.Ray(x, y), Delta: mgl64.Vec2{dx, -dy}}
	if consumed, _ := m.placing.HandlePointerMove(ptr); !consumed && dragging {
		m.cam.Rotate(dx, dy)
	}
}

// primary advances the placement or, when nothing is being placed, selects
// the body under the pointer.
func (m *Model) primary(x, y int) {
	m.pointerX, m.pointerY = x, y
	if m.placing.HandlePrimaryAction(m.scene.Ray(x, y)) {
		return
	}
	if id := m.scene.Pick(m.u, x, y); id != universe.None {
		m.u.SetSelected(id)
	}
}

func (m *Model) secondary(dir float64) {
	if !m.placing.HandleSecondaryAxis(dir * wheelStep) {
		m.cam.Zoom(dir)
	}
}

func (m *Model) stick(stick mgl64.Vec2, modifier bool) {
	if m.placing.HandleAnalogStick(stick, modifier, *m.cam, keyHoldMicros) {
		return
	}
	if modifier {
		m.cam.Zoom(stick.Y())
		return
	}
	m.cam.Rotate(stick.X()*keyRotate, -stick.Y()*keyRotate)
}

func (m *Model) generate() {
	ids, err := m.u.GenerateRandom(m.rng, m.opts.Random)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.status = fmt.Sprintf("added %d bodies", len(ids))
}

func (m *Model) generateOrbital() {
	ids, err := m.u.GenerateRandomOrbital(m.rng, m.opts.OrbitalCount, m.u.Selected())
	if err != nil {
		m.status = "select a body to orbit first"
		return
	}
	m.status = fmt.Sprintf("added %d orbiting bodies", len(ids))
}

func (m *Model) save() {
	if err := storage.SaveFile(m.opts.SavePath, m.u); err != nil {
		m.log.Error("save universe", "path", m.opts.SavePath, "error", err)
		m.status = err.Error()
		return
	}
	m.log.Info("saved universe", "path", m.opts.SavePath, "bodies", m.u.Len())
	m.status = "saved " + m.opts.SavePath
}

func (m *Model) stopRecording() {
	m.recording = false
	n := m.recorder.Len()
	if err := m.recorder.Save(m.opts.GIFPath); err != nil {
		m.log.Error("save recording", "path", m.opts.GIFPath, "error", err)
		m.status = err.Error()
		return
	}
	m.log.Info("saved recording", "path", m.opts.GIFPath, "frames", n)
	m.status = fmt.Sprintf("saved %s (%d frames)", m.opts.GIFPath, n)
}

func (m *Model) nextTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == CurrentTheme.Name {
			SetTheme(names[(i+1)%len(names)])
			break
		}
	}
	m.status = "theme " + CurrentTheme.Name
}

// View renders the canvas beside the stats panel.
func (m Model) View() string {
	canvasView := canvasStyle.Foreground(CurrentTheme.Canvas).Render(m.scene.Canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render("PLANETS") + "\n")
	s.WriteString(m.statusLine() + "\n\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString(labelStyle.Render("Bodies") + SparklineChart(m.bodyHistory, 20) + "\n\n")

	sum := metrics.Summarize(m.u)
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Bodies", fmt.Sprintf("%d", sum.Bodies))
	row("Mass", fmt.Sprintf("%.4g", sum.TotalMass))
	row("Energy", fmt.Sprintf("%.4g", sum.Energy()))
	row("Momentum", fmt.Sprintf("%.4g", sum.Momentum))
	row("Speed", fmt.Sprintf("%gx", m.u.Speed()))
	row("FPS", fmt.Sprintf("%.0f", m.fps))
	row("Camera", m.cameraLine())

	if b, ok := m.u.SelectedBody(); ok {
		s.WriteString("\nSELECTED\n")
		row("ID", fmt.Sprintf("%d", m.u.Selected()))
		row("Mass", fmt.Sprintf("%.4g", b.Mass))
		row("Position", formatVec(b.Position))
		row("Velocity", formatVec(b.UIVelocity()))
	}

	if m.placing.Step != placing.NotPlacing {
		s.WriteString("\n" + stageStyle.Foreground(CurrentTheme.Accent).Render("PLACING: "+strings.ToUpper(m.placing.Step.String())) + "\n")
		if m.placing.Step == placing.Firing {
			row("Speed", fmt.Sprintf("%.4g", m.placing.FiringSpeed))
			row("Mass", fmt.Sprintf("%.4g", m.placing.FiringMass))
		} else {
			b := m.placing.Body
			row("Mass", fmt.Sprintf("%.4g", b.Mass))
			row("Position", formatVec(b.Position))
			row("Velocity", formatVec(b.UIVelocity()))
			if m.placing.OrbitalRadius > 0 {
				row("Radius", fmt.Sprintf("%.4g", m.placing.OrbitalRadius))
			}
		}
	}

	if m.status != "" {
		s.WriteString("\n" + Subtle.Render(m.status) + "\n")
	}
	s.WriteString(helpStyle.Render("─────────────────────\nSP:Pause N:New O:Orbit F:Fire\nR:Random C:Center Q:Quit ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

func (m Model) statusLine() string {
	switch {
	case m.recording:
		return StatusRecording.Render(fmt.Sprintf("● REC %d", m.recorder.Len()))
	case m.placing.PausesSimulation():
		return StatusPaused.Render("PLACING")
	case !m.running:
		return StatusPaused.Render("PAUSED")
	}
	return StatusRunning.Render("RUNNING " + AnimatedSpinner(m.frames))
}

func (m Model) cameraLine() string {
	if m.cam.Mode == camera.FollowSingle {
		return fmt.Sprintf("%s #%d", m.cam.Mode, m.cam.Following)
	}
	return m.cam.Mode.String()
}

func formatVec(v mgl64.Vec3) string {
	return fmt.Sprintf("%.3g %.3g %.3g", v.X(), v.Y(), v.Z())
}

const helpText = `
╔══════════════════════════════════════════╗
║             KEYBOARD SHORTCUTS           ║
╠══════════════════════════════════════════╣
║  Space      - Pause/Resume               ║
║  N          - Place a new body           ║
║  O          - Place a body in orbit      ║
║  F          - Toggle firing mode         ║
║  Enter/LMB  - Confirm / fire / select    ║
║  Esc/RMB    - Cancel / clear selection   ║
║  +/- wheel  - Mass, speed, radius, zoom  ║
║  Arrows     - Move staged body / rotate  ║
║  Tab        - Follow next body           ║
║  Shift+F / 0- Follow selection / none    ║
║  M / Shift+M- Follow plain / weighted    ║
║  , .        - Slower / faster            ║
║  R / Shift+R- Random / random orbits     ║
║  C          - Center universe            ║
║  X / Shift+X- Drop escapees / clear all  ║
║  Del        - Remove selected            ║
║  Ctrl+S     - Save universe              ║
║  G          - Toggle GIF recording       ║
║  T          - Cycle themes               ║
║  ?          - Toggle this help           ║
╚══════════════════════════════════════════╝`

// Run starts the viewer with the alternate screen and mouse motion enabled.
func Run(m tea.Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
	return err
}
