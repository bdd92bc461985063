package runlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/simivar/stnh-techtree-exporter/src/app/artifact"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

var ErrNotStarted = errors.New("run log session not started")

type Session struct {
	ID              string     `json:"id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationSeconds *float64   `json:"duration_seconds"`
	Success         *bool      `json:"success"`
}

type Step struct {
	Script       string         `json:"script"`
	Status       Status         `json:"status"`
	DurationMs   int64          `json:"duration_ms"`
	Timestamp    time.Time      `json:"timestamp"`
	Output       map[string]any `json:"output,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

type Phase struct {
	Name       string     `json:"name"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time"`
	DurationMs *int64     `json:"duration_ms"`
	Steps      []Step     `json:"steps"`
	Success    *bool      `json:"success"`
}

// Document is the JSON layout of a saved run log.
type Document struct {
	Session             Session        `json:"session"`
	Environment         map[string]any `json:"environment"`
	Phases              []Phase        `json:"phases"`
	Statistics          map[string]any `json:"statistics"`
	ManualStepsRequired []string       `json:"manual_steps_required"`
	Errors              []string       `json:"errors"`
	Warnings            []string       `json:"warnings"`
}

// Logger records one pipeline session: phases, their steps, statistics and
// follow-up work for a maintainer.
type Logger struct {
	dir     string
	now     func() time.Time
	doc     Document
	current *Phase
	started bool
	path    string
}

func New(dir string) *Logger {
	return &Logger{dir: dir, now: time.Now}
}

// Start resets the logger for a new session.
func (l *Logger) Start() {
	now := l.now()
	wd, _ := os.Getwd()

	l.doc = Document{
		Session: Session{ID: uuid.NewString(), StartTime: now},
		Environment: map[string]any{
			"go_version":        runtime.Version(),
			"platform":          runtime.GOOS,
			"arch":              runtime.GOARCH,
			"working_directory": wd,
		},
		Phases:              []Phase{},
		Statistics:          map[string]any{},
		ManualStepsRequired: []string{},
		Errors:              []string{},
		Warnings:            []string{},
	}
	l.current = nil
	l.started = true
	l.path = filepath.Join(l.dir, fmt.Sprintf("update_%s.json", now.Format("2006-01-02_15-04-05")))
}

func (l *Logger) SessionID() string {
	return l.doc.Session.ID
}

func (l *Logger) SetEnvironment(key string, value any) {
	l.doc.Environment[key] = value
}

// StartPhase opens a phase, closing any phase still open.
func (l *Logger) StartPhase(name string) error {
	if !l.started {
		return ErrNotStarted
	}
	if l.current != nil {
		l.EndPhase()
	}
	l.current = &Phase{Name: name, StartTime: l.now(), Steps: []Step{}}
	log.Info().Str("phase", name).Msg("Phase started")
	return nil
}

// Step records a step of the open phase. An error status with a message
// is also recorded as a session error.
func (l *Logger) Step(script string, status Status, duration time.Duration, output map[string]any, errMsg string) error {
	if l.current == nil {
		return errors.New("no phase started")
	}
	l.current.Steps = append(l.current.Steps, Step{
		Script:       script,
		Status:       status,
		DurationMs:   duration.Milliseconds(),
		Timestamp:    l.now(),
		Output:       output,
		ErrorMessage: errMsg,
	})
	if status == StatusError && errMsg != "" {
		l.doc.Errors = append(l.doc.Errors, script+": "+errMsg)
	}
	return nil
}

// EndPhase closes the open phase. It succeeds when every step succeeded.
func (l *Logger) EndPhase() {
	if l.current == nil {
		return
	}
	now := l.now()
	ms := now.Sub(l.current.StartTime).Milliseconds()
	success := true
	for _, s := range l.current.Steps {
		if s.Status != StatusSuccess {
			success = false
			break
		}
	}
	l.current.EndTime = &now
	l.current.DurationMs = &ms
	l.current.Success = &success
	l.doc.Phases = append(l.doc.Phases, *l.current)

	log.Info().Str("phase", l.current.Name).Bool("success", success).Int64("duration_ms", ms).Msg("Phase finished")
	l.current = nil
}

func (l *Logger) SetStatistic(key string, value any) {
	l.doc.Statistics[key] = value
}

func (l *Logger) AddManualStep(step string) {
	l.doc.ManualStepsRequired = append(l.doc.ManualStepsRequired, step)
}

func (l *Logger) AddWarning(msg string) {
	l.doc.Warnings = append(l.doc.Warnings, msg)
}

// End closes the session. It succeeds when every phase succeeded and no
// error was recorded.
func (l *Logger) End() bool {
	if !l.started {
		return false
	}
	if l.current != nil {
		l.EndPhase()
	}

	now := l.now()
	secs := float64(now.Sub(l.doc.Session.StartTime).Milliseconds()) / 1000
	success := len(l.doc.Errors) == 0
	for _, p := range l.doc.Phases {
		if p.Success != nil && !*p.Success {
			success = false
		}
	}
	l.doc.Session.EndTime = &now
	l.doc.Session.DurationSeconds = &secs
	l.doc.Session.Success = &success
	return success
}

func (l *Logger) Document() Document {
	return l.doc
}

// Save writes the session document and returns its path.
func (l *Logger) Save() (string, error) {
	if !l.started {
		return "", ErrNotStarted
	}
	w := artifact.NewWriter(l.dir, false)
	path, err := w.JSON(filepath.Base(l.path), l.doc)
	if err != nil {
		return "", fmt.Errorf("save run log: %w", err)
	}
	return path, nil
}

// Summary logs the outcome of the session.
func (l *Logger) Summary() {
	ev := log.Info()
	if l.doc.Session.Success == nil || !*l.doc.Session.Success {
		ev = log.Warn()
	}
	secs := 0.0
	if l.doc.Session.DurationSeconds != nil {
		secs = *l.doc.Session.DurationSeconds
	}
	ev.Str("session", l.doc.Session.ID).
		Int("phases", len(l.doc.Phases)).
		Int("errors", len(l.doc.Errors)).
		Int("warnings", len(l.doc.Warnings)).
		Float64("duration_seconds", secs).
		Msg("Update session finished")

	for _, e := range l.doc.Errors {
		log.Error().Msg(e)
	}
	for i, s := range l.doc.ManualStepsRequired {
		log.Info().Int("step", i+1).Msg(s)
	}
}
