package history

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestPushEvictsOldest(t *testing.T) {
	t.Parallel()
	s := New(2)
	s.Push("a")
	s.Push("b")
	if n := s.Push("c"); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if got := s.Entries(); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Fatalf("entries %v", got)
	}
}

func TestCapacityNeverExceeded(t *testing.T) {
	t.Parallel()
	for _, capacity := range []int{1, 2, 3, 7} {
		s := New(capacity)
		for i := range 20 {
			s.Push(fmt.Sprint(i))
			if s.Len() > capacity {
				t.Fatalf("capacity %d exceeded after %d pushes: %d", capacity, i+1, s.Len())
			}
		}
		if s.Entries()[s.Len()-1] != "19" {
			t.Fatalf("newest entry lost: %v", s.Entries())
		}
	}
}

func TestZeroCapacityIsUnbounded(t *testing.T) {
	t.Parallel()
	s := New(0)
	for i := range 100 {
		if n := s.Push(fmt.Sprint(i)); n != 0 {
			t.Fatalf("unexpected eviction at %d", i)
		}
	}
	if s.Len() != 100 {
		t.Fatalf("expected 100 entries, got %d", s.Len())
	}
}

func TestPop(t *testing.T) {
	t.Parallel()
	s := New(0)
	s.Push("a")
	got, err := s.Pop()
	if err != nil || got != "a" {
		t.Fatalf("pop = %q, %v", got, err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty stack, got %v", s.Entries())
	}
	if _, err := s.Pop(); !errors.Is(err, ErrUnderflow) {
		t.Fatalf("expected ErrUnderflow, got %v", err)
	}
}

func TestSetCapacityEvictsImmediately(t *testing.T) {
	t.Parallel()
	s := New(0)
	for _, e := range []string{"a", "b", "c", "d"} {
		s.Push(e)
	}
	n, err := s.SetCapacity(2)
	if err != nil || n != 2 {
		t.Fatalf("SetCapacity = %d, %v", n, err)
	}
	if got := s.Entries(); !reflect.DeepEqual(got, []string{"c", "d"}) {
		t.Fatalf("entries %v", got)
	}
	if _, err := s.SetCapacity(-1); err == nil {
		t.Fatal("expected error for negative capacity")
	}
	if s.Capacity() != 2 {
		t.Fatalf("failed SetCapacity changed capacity to %d", s.Capacity())
	}
}

func TestEntriesIsACopy(t *testing.T) {
	t.Parallel()
	s := New(0)
	s.Push("a")
	e := s.Entries()
	e[0] = "x"
	if s.Entries()[0] != "a" {
		t.Fatal("Entries leaked internal slice")
	}
	s.Reset()
	if s.Len() != 0 {
		t.Fatal("reset left entries behind")
	}
}
