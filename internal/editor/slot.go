package editor

import (
	"sync"

	"github.com/hpungsan/smartgallery/internal/errors"
	"github.com/hpungsan/smartgallery/internal/media"
)

// Payload hands an in-progress edit from one surface to another without persisting it.
type Payload struct {
	Kind  media.Kind `json:"kind"`
	Src   string     `json:"src"`
	Name  string     `json:"name,omitempty"`
	Type  string     `json:"type,omitempty"`
	TS    int64      `json:"ts,omitempty"`
	Edits *Edits     `json:"edits,omitempty"`
}

// Validate checks the payload before it is handed over.
func (p Payload) Validate() error {
	if p.Kind != media.KindImage && p.Kind != media.KindVideo {
		return errors.NewInvalidRequest(`kind must be "image" or "video"`)
	}
	if p.Src == "" {
		return errors.NewInvalidRequest("src is required")
	}
	return nil
}

// Slot holds at most one Payload. Put overwrites an unconsumed payload and
// Take returns and clears it, so each payload is read at most once.
type Slot struct {
	mu      sync.Mutex
	payload *Payload
}

// Put stores p, silently replacing any payload not yet taken.
func (s *Slot) Put(p Payload) {
	s.mu.Lock()
	s.payload = &p
	s.mu.Unlock()
}

// Take returns the stored payload and empties the slot.
func (s *Slot) Take() (Payload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payload == nil {
		return Payload{}, false
	}
	p := *s.payload
	s.payload = nil
	return p, true
}

// Peek returns the stored payload without consuming it.
func (s *Slot) Peek() (Payload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payload == nil {
		return Payload{}, false
	}
	return *s.payload, true
}
