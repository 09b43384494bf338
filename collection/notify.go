package collection

import (
	"log"
	"sync"
)

// Notice is a user facing message: a short title and the backend's description.
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Notifier interface {
	Notify(n Notice)
}

// Slot holds at most one notice. A newer notice replaces an unread one.
type Slot struct {
	mu     sync.Mutex
	notice *Notice
}

func (s *Slot) Notify(n Notice) {
	s.mu.Lock()
	s.notice = &n
	s.mu.Unlock()
}

// Take returns the pending notice and empties the slot.
func (s *Slot) Take() (Notice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notice == nil {
		return Notice{}, false
	}
	n := *s.notice
	s.notice = nil
	return n, true
}

// LogNotifier writes notices to the standard logger.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notice) {
	log.Printf("%s: %s", n.Title, n.Description)
}

// Tee forwards a notice to every notifier.
type Tee []Notifier

func (t Tee) Notify(n Notice) {
	for _, nt := range t {
		nt.Notify(n)
	}
}
