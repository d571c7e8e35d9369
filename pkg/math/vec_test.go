package math

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestVec2Add(t *testing.T) {
	a := Vec2{1, 2}
	b := Vec2{3, 4}
	got := a.Add(b)
	want := Vec2{4, 6}
	if got != want {
		t.Errorf("Vec2.Add() = %v, want %v", got, want)
	}
}

func TestVec2Length(t *testing.T) {
	v := Vec2{3, 4}
	got := v.Length()
	want := float32(5)
	if got != want {
		t.Errorf("Vec2.Length() = %v, want %v", got, want)
	}
}

func TestVec2Normalize(t *testing.T) {
	v := Vec2{3, 4}
	n := v.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec2.Normalize().Length() = %v, want ~1", l)
	}
	if (Vec2{}).Normalize() != (Vec2{}) {
		t.Error("zero vector should normalize to zero")
	}
}

func TestVec2Perp(t *testing.T) {
	got := Vec2{1, 0}.Perp()
	want := Vec2{0, -1}
	if got != want {
		t.Errorf("Vec2.Perp() = %v, want %v", got, want)
	}
}

func TestVec2Lift(t *testing.T) {
	got := Vec2{3, 5}.Lift(-2)
	want := mgl32.Vec3{3, -2, 5}
	if got != want {
		t.Errorf("Vec2.Lift() = %v, want %v", got, want)
	}
}

func TestSignedArea(t *testing.T) {
	ccw := []Vec2{{0, 0}, {4, 0}, {4, 4}, {0, 4}}
	if got := SignedArea(ccw); got != 16 {
		t.Errorf("SignedArea(ccw) = %v, want 16", got)
	}

	cw := []Vec2{{0, 0}, {0, 4}, {4, 4}, {4, 0}}
	if got := SignedArea(cw); got != -16 {
		t.Errorf("SignedArea(cw) = %v, want -16", got)
	}
}

func TestPointInTriangle(t *testing.T) {
	a, b, c := Vec2{0, 0}, Vec2{4, 0}, Vec2{0, 4}

	tests := []struct {
		p    Vec2
		want bool
	}{
		{Vec2{1, 1}, true},
		{Vec2{2, 0}, true}, // on edge
		{Vec2{3, 3}, false},
		{Vec2{-1, 1}, false},
	}
	for _, tt := range tests {
		if got := PointInTriangle(tt.p, a, b, c); got != tt.want {
			t.Errorf("PointInTriangle(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestCollinear(t *testing.T) {
	const eps = 1.0 / 2560
	tests := []struct {
		name    string
		a, b, c Vec2
		want    bool
	}{
		{"horizontal", Vec2{0, 0}, Vec2{1, 0}, Vec2{2, 0}, true},
		{"vertical", Vec2{0, 0}, Vec2{0, 1}, Vec2{0, 2}, true},
		{"within tolerance", Vec2{0, 0}, Vec2{1, 0.0001}, Vec2{2, 0}, true},
		{"neighbors coincide", Vec2{1, 1}, Vec2{5, 7}, Vec2{1, 1}, true},
		{"corner", Vec2{0, 0}, Vec2{1, 0}, Vec2{1, 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Collinear(tt.a, tt.b, tt.c, eps); got != tt.want {
				t.Errorf("Collinear() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSegmentsIntersect(t *testing.T) {
	if !SegmentsIntersect(Vec2{0, 0}, Vec2{2, 2}, Vec2{0, 2}, Vec2{2, 0}) {
		t.Error("crossing diagonals should intersect")
	}
	if SegmentsIntersect(Vec2{0, 0}, Vec2{1, 0}, Vec2{1, 0}, Vec2{1, 1}) {
		t.Error("segments sharing an endpoint should not count as crossing")
	}
}
