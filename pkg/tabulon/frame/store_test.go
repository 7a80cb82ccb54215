package frame

import (
	"errors"
	"testing"
)

func TestMutateAndUndo(t *testing.T) {
	f, _ := New(NewIntColumn("a", []int64{1, 2, 3}, nil))
	s := NewStore(f)
	defer s.Release()

	before := s.Frame().Copy()

	err := s.Mutate(func(cur *Frame) (*Frame, error) {
		out := cur.Copy()
		out.Column(0).Set(0, int64(100))
		return out, nil
	})
	if err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}
	if v, _ := s.Frame().Column(0).Int(0); v != 100 {
		t.Errorf("mutation not installed: got %d", v)
	}
	if !s.CanUndo() {
		t.Fatal("expected snapshot after mutation")
	}

	if !s.Undo() {
		t.Fatal("Undo reported no snapshot")
	}
	if !s.Frame().Equal(before) {
		t.Error("undo did not restore the prior frame")
	}
	if s.Undo() {
		t.Error("second undo should be a no-op")
	}
}

func TestMutateFailureLeavesFrameUnchanged(t *testing.T) {
	f, _ := New(NewIntColumn("a", []int64{1}, nil))
	s := NewStore(f)
	defer s.Release()

	boom := errors.New("boom")
	err := s.Mutate(func(cur *Frame) (*Frame, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if s.CanUndo() {
		t.Error("failed mutation must not leave a snapshot")
	}
	if v, _ := s.Frame().Column(0).Int(0); v != 1 {
		t.Errorf("live frame changed on failure: got %d", v)
	}
}

func TestReplaceDiscardsSnapshot(t *testing.T) {
	f, _ := New(NewIntColumn("a", []int64{1}, nil))
	s := NewStore(f)
	defer s.Release()

	s.Mutate(func(cur *Frame) (*Frame, error) { return cur.Copy(), nil })
	g, _ := New(NewIntColumn("b", []int64{9}, nil))
	s.Replace(g)
	if s.CanUndo() {
		t.Error("Replace must discard the snapshot")
	}
	if s.Frame().Names()[0] != "b" {
		t.Error("Replace did not install the new frame")
	}
}

func TestMemoryBytes(t *testing.T) {
	f, _ := New(
		NewIntColumn("a", []int64{1, 2, 3, 4}, nil),
		NewStringColumn("s", []string{"aa", "bb", "cc", "dd"}, nil),
	)
	s := NewStore(f)
	defer s.Release()
	if s.MemoryBytes() <= 0 {
		t.Error("expected a positive memory estimate")
	}
}
