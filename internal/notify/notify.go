// Package notify is the user-facing notification surface: success, error
// and warning messages with an optional title.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/manifoldco/promptui"
)

// Level is the severity of a notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Message is one notification
type Message struct {
	Title string
	Text  string
}

// Notifier shows notifications to the user
type Notifier interface {
	Success(Message)
	Error(Message)
	Warning(Message)
}

// Console prints notifications as colored lines
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole creates a console notifier writing to out
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

var (
	successStyle = promptui.Styler(promptui.FGGreen)
	errorStyle   = promptui.Styler(promptui.FGRed)
	warningStyle = promptui.Styler(promptui.FGYellow)
)

func (c *Console) Success(m Message) { c.print("✓", successStyle, m) }
func (c *Console) Error(m Message)   { c.print("✗", errorStyle, m) }
func (c *Console) Warning(m Message) { c.print("⚠", warningStyle, m) }

func (c *Console) print(icon string, style func(interface{}) string, m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case m.Title != "" && m.Text != "":
		fmt.Fprintf(c.out, "%s %s: %s\n", style(icon), style(m.Title), m.Text)
	case m.Title != "":
		fmt.Fprintf(c.out, "%s %s\n", style(icon), style(m.Title))
	default:
		fmt.Fprintf(c.out, "%s %s\n", style(icon), m.Text)
	}
}

// Entry is a recorded notification
type Entry struct {
	Level   Level
	Message Message
}

// Recorder keeps notifications in memory
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Success(m Message) { r.add(LevelSuccess, m) }
func (r *Recorder) Error(m Message)   { r.add(LevelError, m) }
func (r *Recorder) Warning(m Message) { r.add(LevelWarning, m) }

func (r *Recorder) add(l Level, m Message) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Level: l, Message: m})
	r.mu.Unlock()
}

// Entries returns a copy of everything recorded so far
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}
