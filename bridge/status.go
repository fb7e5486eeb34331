package bridge

import (
	"sync"

	"github.com/pinbus/pinbus/message"
)

// Status is a shared snapshot of the bridge for the status UI. Everything in
// it is diagnostic; nothing reads it back into the loop.
type Status struct {
	mu           sync.Mutex
	lastOutbound *message.Outbound
	duties       map[int]int
	published    int
	replies      int
	lastSummary  DumpSummary
}

type Snapshot struct {
	LastOutbound *message.Outbound `json:"last_outbound,omitempty"`
	Duties       map[int]int       `json:"duties"`
	Published    int               `json:"published"`
	Replies      int               `json:"replies"`
	LastSummary  DumpSummary       `json:"last_summary"`
}

func NewStatus() *Status {
	return &Status{duties: make(map[int]int)}
}

func (s *Status) SetOutbound(m *message.Outbound) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOutbound = m
	s.published++
}

func (s *Status) SetDuty(pin, v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.duties[pin] = v
}

func (s *Status) NoteReply(sum DumpSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies++
	s.lastSummary = sum
}

func (s *Status) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	duties := make(map[int]int, len(s.duties))
	for pin, v := range s.duties {
		duties[pin] = v
	}
	return Snapshot{
		LastOutbound: s.lastOutbound,
		Duties:       duties,
		Published:    s.published,
		Replies:      s.replies,
		LastSummary:  s.lastSummary,
	}
}
