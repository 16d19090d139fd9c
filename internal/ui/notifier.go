package ui

import (
	"fmt"
	"io"
	"sync"
)

// Level is the severity of a [Notice].
type Level int

const (
	LevelSuccess Level = iota
	LevelInfo
	LevelError
)

// Notice is a single user-facing notification.
type Notice struct {
	Level   Level
	Message string
}

// Render styles the notice with the package palette.
func (n Notice) Render() string {
	switch n.Level {
	case LevelSuccess:
		return styles.ok.Render("✓ " + n.Message)
	case LevelError:
		return styles.err.Render("✗ " + n.Message)
	default:
		return styles.warn.Render("• " + n.Message)
	}
}

// Notifier writes notices to w, one styled line each.
//
// It satisfies services.Notifier and is safe for concurrent use.
type Notifier struct {
	mu    sync.Mutex
	w     io.Writer
	queue chan Notice
}

func NewNotifier(w io.Writer) *Notifier {
	return &Notifier{w: w}
}

func (n *Notifier) Success(msg string) { n.notify(Notice{Level: LevelSuccess, Message: msg}) }
func (n *Notifier) Info(msg string)    { n.notify(Notice{Level: LevelInfo, Message: msg}) }
func (n *Notifier) Error(msg string)   { n.notify(Notice{Level: LevelError, Message: msg}) }

func (n *Notifier) notify(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.queue != nil {
		select {
		case n.queue <- notice:
		default:
		}
		return
	}
	if n.w != nil {
		fmt.Fprintln(n.w, notice.Render())
	}
}

// Capture diverts notices into a buffered channel until [Notifier.Release].
// Notices are dropped when the buffer is full.
func (n *Notifier) Capture(size int) <-chan Notice {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.queue != nil {
		close(n.queue)
	}
	n.queue = make(chan Notice, size)
	return n.queue
}

// Release closes the capture channel and resumes writing to w.
func (n *Notifier) Release() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.queue != nil {
		close(n.queue)
		n.queue = nil
	}
}
