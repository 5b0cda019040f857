// Package history keeps the pre-distribution snapshots used for undo.
package history

import (
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
)

// Event is the state captured immediately before a distribution is applied.
type Event struct {
	Amount      string
	Friends     []string
	Spender     string
	Description string
	Ledger      ledger.Ledger
}

// Entry returns the form fields the event restores, friends joined for display.
func (e Event) Entry() models.Entry {
	return models.Entry{
		Amount:      e.Amount,
		Friends:     models.JoinList(e.Friends),
		Spender:     e.Spender,
		Description: e.Description,
	}
}

// Stack is a strict LIFO of events. The zero value is empty and ready to use.
type Stack struct {
	events []Event
}

// Push appends an event. The friends slice is copied; the ledger is an
// immutable value and needs no copy.
func (s *Stack) Push(e Event) {
	e.Friends = append([]string(nil), e.Friends...)
	s.events = append(s.events, e)
}

// Pop removes and returns the most recent event. It reports false and leaves
// the stack untouched when empty.
func (s *Stack) Pop() (Event, bool) {
	if len(s.events) == 0 {
		return Event{}, false
	}
	last := s.events[len(s.events)-1]
	s.events[len(s.events)-1] = Event{}
	s.events = s.events[:len(s.events)-1]
	return last, true
}

// Peek returns the most recent event without removing it.
func (s *Stack) Peek() (Event, bool) {
	if len(s.events) == 0 {
		return Event{}, false
	}
	return s.events[len(s.events)-1], true
}

// Len returns the number of events.
func (s *Stack) Len() int {
	return len(s.events)
}

// CanUndo reports whether Pop would return an event.
func (s *Stack) CanUndo() bool {
	return len(s.events) > 0
}
