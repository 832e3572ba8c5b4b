package deck

import (
	"sync"
	"time"
)

// NoticeDuration is how long a transient message stays visible.
const NoticeDuration = 1500 * time.Millisecond

type NoticeType int

const (
	None NoticeType = iota
	Info
	Warning
	Error
)

// Notice is a transient user-facing message.
type Notice struct {
	Message string
	Type    NoticeType
	Expires time.Time
}

// Notices holds the one message currently on display. A new message
// replaces the old one and restarts the timer.
type Notices struct {
	mu      sync.Mutex
	current Notice
	now     func() time.Time
}

func NewNotices() *Notices {
	return &Notices{now: time.Now}
}

// Post shows message for d (NoticeDuration when d is 0).
func (n *Notices) Post(message string, typ NoticeType, d time.Duration) {
	if d <= 0 {
		d = NoticeDuration
	}
	n.mu.Lock()
	n.current = Notice{Message: message, Type: typ, Expires: n.now().Add(d)}
	n.mu.Unlock()
}

// Current returns the message on display, if it has not expired.
func (n *Notices) Current() (Notice, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current.Type == None || !n.now().Before(n.current.Expires) {
		return Notice{}, false
	}
	return n.current, true
}

// Last returns the most recent message whether or not it has expired.
func (n *Notices) Last() Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}
