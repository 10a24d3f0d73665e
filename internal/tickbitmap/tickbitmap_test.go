package tickbitmap

import (
	"errors"
	"testing"
)

func initialized(t *testing.T, b Bitmap, ticks ...int32) {
	t.Helper()
	for _, tick := range ticks {
		if err := b.FlipTick(tick, 1); err != nil {
			t.Fatalf("flip %d: %v", tick, err)
		}
	}
}

func TestFlipTickNotSpaced(t *testing.T) {
	b := New()
	if err := b.FlipTick(5, 3); !errors.Is(err, ErrTickNotSpaced) {
		t.Fatalf("expected spacing error, got %v", err)
	}
}

func TestFlipTickToggles(t *testing.T) {
	b := New()
	initialized(t, b, 100)

	next, ok := b.NextInitializedTickWithinOneWord(100, 1, true)
	if !ok || next != 100 {
		t.Fatalf("expected 100 initialized, got %d %v", next, ok)
	}

	initialized(t, b, 100)
	if _, ok := b.NextInitializedTickWithinOneWord(100, 1, true); ok {
		t.Fatalf("double flip should clear the bit")
	}
	if len(b) != 0 {
		t.Fatalf("empty words should be pruned, have %d", len(b))
	}
}

func TestNextInitializedTickLte(t *testing.T) {
	b := New()
	initialized(t, b, -200, -55, -4, 70, 78, 84, 139, 240, 535)

	cases := []struct {
		tick int32
		want int32
		ok   bool
	}{
		{78, 78, true},
		{79, 78, true},
		{77, 70, true},
		{-55, -55, true},
		{-56, -200, true},
		{535, 535, true},
		{-257, -512, false},
	}
	for _, tc := range cases {
		got, ok := b.NextInitializedTickWithinOneWord(tc.tick, 1, true)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("lte from %d: got (%d, %v), want (%d, %v)", tc.tick, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNextInitializedTickGt(t *testing.T) {
	b := New()
	initialized(t, b, -200, -55, -4, 70, 78, 84, 139, 240, 535)

	cases := []struct {
		tick int32
		want int32
		ok   bool
	}{
		{78, 84, true},
		{77, 78, true},
		{-56, -55, true},
		{-55, -4, true},
		{535, 767, false},
	}
	for _, tc := range cases {
		got, ok := b.NextInitializedTickWithinOneWord(tc.tick, 1, false)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("gt from %d: got (%d, %v), want (%d, %v)", tc.tick, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNextInitializedTickSpacing(t *testing.T) {
	b := New()
	if err := b.FlipTick(120, 60); err != nil {
		t.Fatalf("flip: %v", err)
	}

	got, ok := b.NextInitializedTickWithinOneWord(60, 60, false)
	if !ok || got != 120 {
		t.Fatalf("expected 120, got %d %v", got, ok)
	}
	got, ok = b.NextInitializedTickWithinOneWord(180, 60, true)
	if !ok || got != 120 {
		t.Fatalf("expected 120, got %d %v", got, ok)
	}
}

func TestNextInitializedTickWordBoundary(t *testing.T) {
	b := New()
	// Empty word searches stop at the word edge.
	got, ok := b.NextInitializedTickWithinOneWord(0, 1, true)
	if ok || got != 0 {
		t.Fatalf("lte from 0 in empty word should stop at 0, got %d %v", got, ok)
	}

	got, ok = b.NextInitializedTickWithinOneWord(0, 1, false)
	if ok || got != 255 {
		t.Fatalf("gt from 0 in empty word should stop at 255, got %d %v", got, ok)
	}
}
