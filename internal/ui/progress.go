package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/llehouerou/charcoal/internal/pipeline"
)

// RunOutcome carries the pipeline result out of the progress program.
type RunOutcome struct {
	Result *pipeline.Result
	Err    error
}

type (
	progressMsg   pipeline.Progress
	eventsDoneMsg struct{}
	outcomeMsg    RunOutcome
)

// Progress is the bubbletea model shown while a generation run executes on
// another goroutine. It consumes pipeline updates from events; once that
// channel closes it collects the run's outcome and quits.
type Progress struct {
	source  string
	events  <-chan pipeline.Progress
	outcome <-chan RunOutcome

	bar progress.Model

	phase   pipeline.Phase
	current int
	total   int
	eta     etaTracker
	etaText string

	width   int
	done    bool
	aborted bool
	final   RunOutcome
}

// NewProgress builds the progress model for one run. events must be closed
// when the run goroutine finishes; outcome then delivers its result.
func NewProgress(source string, events <-chan pipeline.Progress, outcome <-chan RunOutcome) Progress {
	t := T()
	return Progress{
		source:  source,
		events:  events,
		outcome: outcome,
		bar: progress.New(
			progress.WithGradient(string(t.Primary), string(t.Secondary)),
			progress.WithoutPercentage(),
		),
		width: 80,
	}
}

func (m Progress) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.aborted = true
			return m, tea.Quit
		}
		return m, nil

	case progressMsg:
		m.apply(pipeline.Progress(msg), time.Now())
		return m, waitForEvent(m.events)

	case eventsDoneMsg:
		return m, waitForOutcome(m.outcome)

	case outcomeMsg:
		m.final = RunOutcome(msg)
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Progress) View() string {
	if m.done || m.aborted {
		return ""
	}
	s := T().S()
	head := s.Accent.Render("◦") + " " + s.Title.Render(Truncate(filepath.Base(m.source), 32))

	if m.phase != pipeline.PhaseRender || m.total < 1 {
		label := string(m.phase)
		if label == "" {
			label = "starting"
		}
		detail := s.Muted.Render(label)
		if m.phase == pipeline.PhaseAssemble && m.total > 1 {
			detail += s.Subtle.Render(fmt.Sprintf(" %d/%d", m.current, m.total))
		}
		return head + "  " + detail + "\n"
	}

	tail := s.Muted.Render(fmt.Sprintf("%d/%d", m.current, m.total))
	if m.etaText != "" {
		tail += "  " + s.Subtle.Render("~" + m.etaText)
	}

	fixed := ansi.StringWidth(head) + ansi.StringWidth(tail) + 4 // gaps around the bar
	bar := m.bar
	bar.Width = min(max(m.width-fixed, 10), 40)

	return head + "  " + bar.ViewAs(float64(m.current)/float64(m.total)) + "  " + tail + "\n"
}

// Outcome returns the run's outcome. ok is false when the program was
// interrupted before the pipeline finished.
func (m Progress) Outcome() (RunOutcome, bool) {
	return m.final, m.done
}

// apply folds one pipeline update into the model, anchoring the estimate
// window when rendering starts.
func (m *Progress) apply(p pipeline.Progress, now time.Time) {
	if p.Phase == pipeline.PhaseRender && m.phase != pipeline.PhaseRender {
		m.eta.anchor(now)
	}
	m.phase = p.Phase
	m.current = p.Current
	m.total = p.Total
	if p.Phase == pipeline.PhaseRender {
		m.etaText = m.eta.update(now, p.Current, p.Total)
	}
}

// waitForEvent waits for the next pipeline update and converts it to a
// message; a closed channel means the run goroutine is done.
func waitForEvent(ch <-chan pipeline.Progress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return eventsDoneMsg{}
		}
		return progressMsg(p)
	}
}

func waitForOutcome(ch <-chan RunOutcome) tea.Cmd {
	return func() tea.Msg {
		return outcomeMsg(<-ch)
	}
}

// RunWithProgress executes the run on a goroutine while the interactive
// progress program occupies the terminal. ok is false when the user
// interrupted the run before it completed.
func RunWithProgress(r *pipeline.Runner, req pipeline.Request) (RunOutcome, bool, error) {
	events := make(chan pipeline.Progress, 16)
	r.OnProgress = func(p pipeline.Progress) { events <- p }

	outcomeCh := make(chan RunOutcome, 1)
	go func() {
		res, err := r.Run(req)
		close(events)
		outcomeCh <- RunOutcome{Result: res, Err: err}
	}()

	p := tea.NewProgram(NewProgress(req.SourcePath, events, outcomeCh), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return RunOutcome{}, false, err
	}
	out, ok := final.(Progress).Outcome()
	return out, ok, nil
}
