package interp

import "github.com/slp-lang/slp/slp"

import "testing"

func TestScopePushPopAndLookup(t *testing.T) {
	s := newScope()
	s.define("x", slp.NewInteger(1))

	d := s.push()
	s.define("y", slp.NewInteger(2))
	if v, ok := s.lookup("x"); !ok || v.Int() != 1 {
		t.Errorf("expected outer x visible from inner frame")
	}
	if !s.has("y", true) {
		t.Error("expected y to be local to the top frame")
	}

	popped := s.pop()
	if popped != d {
		t.Errorf("pop() = %d, want %d", popped, d)
	}
	if s.has("y", false) {
		t.Error("expected y to be gone after pop")
	}
	if !s.has("x", false) {
		t.Error("expected x to survive the pop")
	}
}

func TestScopeDefineOverwritesTopFrameOnly(t *testing.T) {
	s := newScope()
	s.define("x", slp.NewInteger(1))
	s.push()
	s.define("x", slp.NewInteger(2))
	v, _ := s.lookup("x")
	if v.Int() != 2 {
		t.Errorf("lookup(x) = %d, want 2 (top frame shadows)", v.Int())
	}
	s.pop()
	v, _ = s.lookup("x")
	if v.Int() != 1 {
		t.Errorf("lookup(x) after pop = %d, want 1 (outer frame restored)", v.Int())
	}
}

func TestScopePopRootPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected popping the root frame to panic")
		}
	}()
	s := newScope()
	s.pop()
}
