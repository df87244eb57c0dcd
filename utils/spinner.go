package utils

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

// Spinner animates a single status line while an image goes through the
// segmentation stages. The line shows the label, the current stage and a
// spinning frame; Stop replaces it with the outcome of the run.
type Spinner struct {
	Label    string
	Interval time.Duration
	DoneMsg  string
	FailMsg  string

	w          io.Writer
	hideCursor bool

	mu    sync.Mutex
	stage string
	width int
	stop  chan struct{}
	done  chan struct{}
}

// NewSpinner returns a spinner writing to w.
func NewSpinner(w io.Writer, label string, hideCursor bool) *Spinner {
	return &Spinner{
		Label:      label,
		Interval:   80 * time.Millisecond,
		DoneMsg:    "done",
		FailMsg:    "failed",
		w:          w,
		hideCursor: hideCursor,
	}
}

// Start begins the animation with the given stage. A running spinner only
// has its stage replaced.
func (s *Spinner) Start(stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stage = stage
	if s.stop != nil {
		return
	}
	if s.hideCursor && runtime.GOOS != "windows" {
		fmt.Fprint(s.w, "\033[?25l")
	}
	s.stop, s.done = make(chan struct{}), make(chan struct{})
	go s.run(s.stop, s.done)
}

// SetStage replaces the stage shown next to the label.
func (s *Spinner) SetStage(stage string) {
	s.mu.Lock()
	s.stage = stage
	s.mu.Unlock()
}

func (s *Spinner) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := s.Interval
	if interval <= 0 {
		interval = 80 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		s.render(spinnerFrames[i%len(spinnerFrames)])
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

func (s *Spinner) render(frame rune) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := fmt.Sprintf("%s %s", StatusLine(s.Label, s.stage, DefaultMessage), DecorateText(string(frame), SuccessMessage))
	s.clear()
	fmt.Fprint(s.w, line)
	s.width = utf8.RuneCountInString(line)
}

// Stop halts the animation and prints the done or the failure message,
// depending on err. It waits for the last frame to be written.
func (s *Spinner) Stop(err error) {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()

	s.clear()
	s.RestoreCursor()
	if err != nil {
		fmt.Fprintln(s.w, StatusLine(s.Label, s.FailMsg+" ✘", ErrorMessage))
		return
	}
	fmt.Fprintln(s.w, StatusLine(s.Label, s.DoneMsg+" ✔", SuccessMessage))
}

// RestoreCursor makes the cursor visible again.
func (s *Spinner) RestoreCursor() {
	if s.hideCursor && runtime.GOOS != "windows" {
		fmt.Fprint(s.w, "\033[?25h")
	}
}

// clear blanks the last rendered line. The caller must hold the lock.
func (s *Spinner) clear() {
	if s.width == 0 {
		return
	}
	fmt.Fprint(s.w, "\r"+strings.Repeat(" ", s.width)+"\r")
	s.width = 0
}
