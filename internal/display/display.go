// Package display provides the terminal UI using Bubble Tea.
//
// The [UI] type manages a persistent workout status bar and an input
// prompt at the bottom of the terminal. All application output is
// printed above the rendered area via Program.Println / Printf,
// ensuring concurrent writes never garble the display.
package display

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/ottolift/internal/domain"
)

// SnapshotFunc returns the current engine state for one frame.
type SnapshotFunc func(ctx context.Context) (domain.Snapshot, error)

// refreshInterval is how often the status bar polls the engine. It is
// shorter than a phase so the phase bar moves smoothly.
const refreshInterval = 100 * time.Millisecond

// ── Styles ───────────────────────────────────────────────────────

var (
	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	phaseStyles = map[domain.Phase]lipgloss.Style{
		domain.PhaseReady:      lipgloss.NewStyle().Foreground(lipgloss.Color("#71717a")).Italic(true),
		domain.PhaseEccentric:  lipgloss.NewStyle().Foreground(lipgloss.Color("#93c5fd")).Bold(true),
		domain.PhaseHold:       lipgloss.NewStyle().Foreground(lipgloss.Color("#fde68a")).Bold(true),
		domain.PhaseConcentric: lipgloss.NewStyle().Foreground(lipgloss.Color("#bbf7d0")).Bold(true),
	}

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5")).
			Italic(true)

	restRunStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	offStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b")).
			Strikethrough(true)

	sepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// ── Output styles (soft palette) ──

	// BannerStyle is muted slate for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// Coach lines in soft sky blue.
	chatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd"))

	// Set summaries in soft mint.
	setStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	primaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	urgentOutputStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fca5a5"))

	userInputEchoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a1a1aa"))
)

// ── UI ───────────────────────────────────────────────────────────

// UI manages the terminal through Bubble Tea.
//
// Call [NewUI] then [UI.Run] (blocking).  Other goroutines may
// safely call [UI.Println], [UI.Printf], and read from
// [UI.InputChan] at any time after [UI.WaitReady] returns.
type UI struct {
	program  *tea.Program
	inputCh  chan string
	readyCh  chan struct{}
	quitCh   chan struct{}
	snapshot SnapshotFunc
	done     atomic.Bool
}

// NewUI creates the display. Call Run() to start.
func NewUI(snapshot SnapshotFunc) *UI {
	return &UI{
		snapshot: snapshot,
		inputCh:  make(chan string, 16),
		readyCh:  make(chan struct{}),
		quitCh:   make(chan struct{}),
	}
}

// Println prints a line above the prompt. Thread-safe.
// If the program hasn't started yet, falls back to fmt.Println.
func (u *UI) Println(a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// Printf prints formatted text above the prompt on its own line.
// Thread-safe.
func (u *UI) Printf(format string, a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Printf(format, a...)
	} else {
		fmt.Printf(format+"\n", a...)
	}
}

// InputChan returns completed user-input lines.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// ── Styled print helpers ─────────────────────────────────────────

// PrintChat prints a coach line.
func (u *UI) PrintChat(text string) {
	u.Println(chatStyle.Render("  " + text))
}

// PrintSet prints a finished-set summary.
func (u *UI) PrintSet(text string) {
	u.Println(setStyle.Render("  " + text))
}

// PrintInstruction prints a primary line.
func (u *UI) PrintInstruction(text string) {
	u.Println(primaryStyle.Render("  " + text))
}

// PrintHint prints a secondary/dimmed line.
func (u *UI) PrintHint(text string) {
	u.Println(secondaryStyle.Render("  " + text))
}

// PrintUrgent prints an urgent/error line.
func (u *UI) PrintUrgent(text string) {
	u.Println(urgentOutputStyle.Render("  " + text))
}

// PrintVoice prints a voice-recognised input line.
func (u *UI) PrintVoice(text string) {
	u.Println(secondaryStyle.Render("[voice] ") + primaryStyle.Render(text))
}

// PrintUserInput echoes the user's typed command into the scrollback.
func (u *UI) PrintUserInput(text string) {
	u.Println(promptStyle.Render("lift") + secondaryStyle.Render("> ") + userInputEchoStyle.Render(text))
}

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Run starts the Bubble Tea event loop.  Blocks until quit.
func (u *UI) Run() error {
	ti := textinput.New()
	// Plain-text prompt: styled prompts break textinput's width math.
	ti.Prompt = "lift> "
	ti.PromptStyle = promptStyle
	ti.TextStyle = userInputEchoStyle
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 60 // updated on first WindowSizeMsg

	m := model{
		snapshot: u.snapshot,
		input:    ti,
		inputCh:  u.inputCh,
		readyCh:  u.readyCh,
		echoFn: func(v string) {
			u.PrintUserInput(v)
		},
	}

	u.program = tea.NewProgram(m)
	_, err := u.program.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	snapshot SnapshotFunc
	input    textinput.Model
	inputCh  chan<- string
	readyCh  chan struct{}
	echoFn   func(string) // prints user input into scrollback
	snap     domain.Snapshot
	haveSnap bool
	width    int
}

// Messages.
type (
	tickMsg     time.Time
	snapshotMsg struct {
		snap domain.Snapshot
		err  error
	}
)

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tickCmd(),
		signalReady(m.readyCh),
	)
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		close(ch)
		return nil
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchCmd reads the engine state off the Update goroutine so a busy
// scheduler never stalls key handling.
func fetchCmd(fn SnapshotFunc) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshInterval)
		defer cancel()
		snap, err := fn(ctx)
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			v := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(v) != "" {
				m.inputCh <- v
				// Echo from a Cmd so Println never runs inside Update.
				echoFn := m.echoFn
				return m, func() tea.Msg {
					echoFn(v)
					return nil
				}
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		const promptLen = 6 // "lift> "
		if msg.Width > promptLen {
			m.input.Width = msg.Width - promptLen
		}
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if m.snapshot != nil {
			cmds = append(cmds, fetchCmd(m.snapshot))
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		if msg.err != nil {
			return m, nil
		}
		m.snap = msg.snap
		m.haveSnap = true
		return m, tea.SetWindowTitle(titleStr(m.snap))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder

	if m.haveSnap {
		b.WriteString(renderBar(m.snap, m.width))
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.WriteString(m.input.View())
	return b.String()
}

// ── Rendering ────────────────────────────────────────────────────

// renderBar draws the status bar for one snapshot.
func renderBar(s domain.Snapshot, width int) string {
	var parts []string

	if s.Exercise != "" {
		parts = append(parts, labelStyle.Render(s.Exercise))
	}
	parts = append(parts, renderTempo(s.Tempo))
	parts = append(parts, labelStyle.Render("reps ")+primaryStyle.Render(fmt.Sprint(s.Tempo.Reps)))
	parts = append(parts, renderRest(s.Rest))
	parts = append(parts, labelStyle.Render("sets ")+primaryStyle.Render(fmt.Sprint(s.Sets)))
	parts = append(parts, toggle("tone", s.Feedback.Tone)+" "+toggle("voice", s.Feedback.Voice))

	content := " " + strings.Join(parts, sepStyle.Render("  │  ")) + " "

	if width <= 0 {
		width = 80
	}
	return barBg.Width(width).Render(content)
}

func renderTempo(t domain.TempoState) string {
	style := phaseStyles[t.Phase]
	if !t.Phase.Active() {
		return style.Render(t.Phase.String()) + " " + secondaryStyle.Render(t.Durations.String())
	}

	label := style.Render(strings.ToUpper(t.Phase.String()))
	if t.Paused() {
		label += " " + pausedStyle.Render("paused")
	}
	return label + " " + phaseMeter(t, 10) + " " + labelStyle.Render(fmtSeconds(t.Remaining()))
}

// phaseMeter draws how much of the current phase has elapsed.
func phaseMeter(t domain.TempoState, cells int) string {
	total := t.Durations.Of(t.Phase)
	filled := 0
	if total > 0 {
		filled = int(int64(cells) * int64(t.Elapsed) / int64(total))
	}
	if filled > cells {
		filled = cells
	}
	style := phaseStyles[t.Phase]
	return style.Render(strings.Repeat("█", filled)) + sepStyle.Render(strings.Repeat("░", cells-filled))
}

func renderRest(r domain.RestState) string {
	label := labelStyle.Render("rest ")
	switch {
	case r.Running:
		return label + restRunStyle.Render(fmtDuration(r.Remaining))
	case r.Remaining < r.Duration && r.Remaining > 0:
		return label + pausedStyle.Render(fmtDuration(r.Remaining)+" paused")
	default:
		return label + secondaryStyle.Render(fmtDuration(r.Duration))
	}
}

func toggle(name string, on bool) string {
	if on {
		return primaryStyle.Render(name)
	}
	return offStyle.Render(name)
}

func titleStr(s domain.Snapshot) string {
	switch {
	case s.Rest.Running:
		return "OttoLift · rest " + fmtDuration(s.Rest.Remaining)
	case s.Tempo.Phase.Active():
		return fmt.Sprintf("OttoLift · %s · %d reps", s.Tempo.Phase, s.Tempo.Reps)
	default:
		return "OttoLift"
	}
}

// ── Helpers ──────────────────────────────────────────────────────

func fmtDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	if m == 0 {
		return fmt.Sprintf("%ds", s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// fmtSeconds shows sub-minute phase time with one decimal.
func fmtSeconds(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
