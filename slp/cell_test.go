package slp

import "testing"

func TestTruthy(t *testing.T) {
	if NewInteger(0).Truthy() {
		t.Error("0 should not be truthy")
	}
	if !NewInteger(1).Truthy() {
		t.Error("1 should be truthy")
	}
	if !NewDqList("").Truthy() {
		t.Error("non-Integer cells are always truthy, even an empty string")
	}
}

func TestEqual(t *testing.T) {
	if !Equal(NewInteger(5), NewInteger(5)) {
		t.Error("equal integers should compare equal")
	}
	if Equal(NewInteger(5), NewReal(5)) {
		t.Error("different tags should never compare equal")
	}
	if !Equal(NewAberrant(3), NewAberrant(3)) {
		t.Error("aberrant cells compare by lambda id")
	}
	if Equal(NewAberrant(3), NewAberrant(4)) {
		t.Error("different lambda ids should not compare equal")
	}
	a := NewParenList([]Cell{NewInteger(1), NewDqList("x")})
	b := NewParenList([]Cell{NewInteger(1), NewDqList("x")})
	if !Equal(a, b) {
		t.Error("structurally identical lists should compare equal")
	}
}
