// Package history holds the bounded list of recent conversation turns.
package history

import (
	"errors"
	"fmt"
)

// ErrUnderflow is returned by Pop on an empty stack.
var ErrUnderflow = errors.New("history is empty")

// Stack is an ordered list of raw text turns, oldest first. With a capacity
// above zero, pushes evict from the front so Len never exceeds it; capacity
// zero never evicts. Stack is not safe for concurrent use.
type Stack struct {
	entries  []string
	capacity int
}

// New returns an empty stack. A negative capacity is treated as zero.
func New(capacity int) *Stack {
	return &Stack{capacity: max(capacity, 0)}
}

// Push appends entry and evicts the oldest entries beyond capacity. It
// returns the number evicted.
func (s *Stack) Push(entry string) int {
	s.entries = append(s.entries, entry)
	return s.trim()
}

// Pop removes and returns the newest entry.
func (s *Stack) Pop() (string, error) {
	if len(s.entries) == 0 {
		return "", ErrUnderflow
	}
	last := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return last, nil
}

func (s *Stack) Reset() {
	s.entries = nil
}

// Entries returns a copy, oldest first.
func (s *Stack) Entries() []string {
	return append([]string(nil), s.entries...)
}

func (s *Stack) Len() int      { return len(s.entries) }
func (s *Stack) Capacity() int { return s.capacity }

// SetCapacity changes the bound and evicts immediately if the stack is now
// over it.
func (s *Stack) SetCapacity(capacity int) (int, error) {
	if capacity < 0 {
		return 0, fmt.Errorf("history capacity must be >= 0, got %d", capacity)
	}
	s.capacity = capacity
	return s.trim(), nil
}

func (s *Stack) trim() int {
	if s.capacity == 0 || len(s.entries) <= s.capacity {
		return 0
	}
	n := len(s.entries) - s.capacity
	s.entries = append(s.entries[:0:0], s.entries[n:]...)
	return n
}
