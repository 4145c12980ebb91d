package dashboard

import (
	"sync"
	"time"
)

// Level is a toast severity.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Toast is a transient, dismissable notification.
type Toast struct {
	ID    int
	Level Level
	Text  string
	At    time.Time
}

// Toasts is the notification layer. A zero TTL keeps toasts until dismissed.
type Toasts struct {
	TTL time.Duration

	mu     sync.Mutex
	next   int
	items  []Toast
	now    func() time.Time
	onPush func(Toast)
}

// NewToasts returns a layer whose toasts expire after ttl.
func NewToasts(ttl time.Duration) *Toasts {
	return &Toasts{TTL: ttl, now: time.Now}
}

// OnPush registers fn to be called (outside the lock) for every new toast.
func (t *Toasts) OnPush(fn func(Toast)) {
	t.mu.Lock()
	t.onPush = fn
	t.mu.Unlock()
}

// Push appends a toast and returns it.
func (t *Toasts) Push(level Level, text string) Toast {
	t.mu.Lock()
	t.next++
	now := time.Now
	if t.now != nil {
		now = t.now
	}
	toast := Toast{ID: t.next, Level: level, Text: text, At: now()}
	t.items = append(t.items, toast)
	hook := t.onPush
	t.mu.Unlock()

	if hook != nil {
		hook(toast)
	}
	return toast
}

func (t *Toasts) Info(text string) Toast    { return t.Push(LevelInfo, text) }
func (t *Toasts) Success(text string) Toast { return t.Push(LevelSuccess, text) }
func (t *Toasts) Warn(text string) Toast    { return t.Push(LevelWarning, text) }
func (t *Toasts) Error(text string) Toast   { return t.Push(LevelError, text) }

// Snapshot returns the visible toasts, oldest first.
func (t *Toasts) Snapshot() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Toast, len(t.items))
	copy(out, t.items)
	return out
}

// Dismiss removes the toast with id and reports whether it was present.
func (t *Toasts) Dismiss(id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, it := range t.items {
		if it.ID == id {
			t.items = append(t.items[:i], t.items[i+1:]...)
			return true
		}
	}
	return false
}

// Expire drops toasts older than TTL and returns how many it removed.
func (t *Toasts) Expire() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.TTL <= 0 {
		return 0
	}
	now := time.Now
	if t.now != nil {
		now = t.now
	}
	cutoff := now().Add(-t.TTL)
	kept := t.items[:0]
	for _, it := range t.items {
		if it.At.After(cutoff) {
			kept = append(kept, it)
		}
	}
	removed := len(t.items) - len(kept)
	t.items = kept
	return removed
}

// Clear removes every toast.
func (t *Toasts) Clear() {
	t.mu.Lock()
	t.items = nil
	t.mu.Unlock()
}
