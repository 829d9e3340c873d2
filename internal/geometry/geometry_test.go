package geometry

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRectArea(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rect Rect
		want float64
	}{
		{
			name: "positive dimensions",
			rect: Rect{X: 10, Y: 20, Width: 300, Height: 250},
			want: 75000,
		},
		{
			name: "zero width",
			rect: Rect{X: 0, Y: 0, Width: 0, Height: 100},
			want: 0,
		},
		{
			name: "negative height",
			rect: Rect{X: 0, Y: 0, Width: 100, Height: -5},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.rect.Area(); !almostEqual(got, tt.want) {
				t.Errorf("Area() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIntersectionRatio(t *testing.T) {
	t.Parallel()

	viewport := Rect{X: 0, Y: 0, Width: 1920, Height: 1080}

	tests := []struct {
		name   string
		rect   Rect
		bounds Rect
		want   float64
	}{
		{
			name:   "fully inside viewport",
			rect:   Rect{X: 100, Y: 100, Width: 300, Height: 250},
			bounds: viewport,
			want:   1.0,
		},
		{
			name:   "identical rectangles",
			rect:   Rect{X: 50, Y: 50, Width: 200, Height: 200},
			bounds: Rect{X: 50, Y: 50, Width: 200, Height: 200},
			want:   1.0,
		},
		{
			name:   "completely below the fold",
			rect:   Rect{X: 0, Y: 2000, Width: 300, Height: 250},
			bounds: viewport,
			want:   0,
		},
		{
			name:   "half visible at bottom edge",
			rect:   Rect{X: 0, Y: 980, Width: 300, Height: 200},
			bounds: viewport,
			want:   0.5,
		},
		{
			name:   "quarter visible at corner",
			rect:   Rect{X: 1820, Y: 980, Width: 200, Height: 200},
			bounds: viewport,
			want:   0.25,
		},
		{
			name:   "degenerate rect has no ratio",
			rect:   Rect{X: 100, Y: 100, Width: 0, Height: 250},
			bounds: viewport,
			want:   0,
		},
		{
			name:   "touching edges only",
			rect:   Rect{X: 1920, Y: 0, Width: 300, Height: 250},
			bounds: viewport,
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := IntersectionRatio(tt.rect, tt.bounds); !almostEqual(got, tt.want) {
				t.Errorf("IntersectionRatio() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIntersectionRatioRange(t *testing.T) {
	t.Parallel()

	// The ratio must stay in [0, 1] for arbitrary geometry, including
	// bounds smaller than the rect.
	rects := []Rect{
		{X: -500, Y: -500, Width: 5000, Height: 5000},
		{X: 0, Y: 0, Width: 1, Height: 1},
		{X: 100, Y: 100, Width: 728, Height: 90},
	}
	bounds := []Rect{
		{X: 0, Y: 0, Width: 10, Height: 10},
		{X: 0, Y: 0, Width: 1920, Height: 1080},
		{X: -100, Y: -100, Width: 50, Height: 50},
	}

	for _, r := range rects {
		for _, b := range bounds {
			got := IntersectionRatio(r, b)
			if got < 0 || got > 1 {
				t.Errorf("IntersectionRatio(%v, %v) = %v, out of [0,1]", r, b, got)
			}
		}
	}
}

func TestOverlapFraction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a    Rect
		b    Rect
		want float64
	}{
		{
			name: "disjoint",
			a:    Rect{X: 0, Y: 0, Width: 100, Height: 100},
			b:    Rect{X: 500, Y: 500, Width: 100, Height: 100},
			want: 0,
		},
		{
			name: "small fully covered by large",
			a:    Rect{X: 0, Y: 0, Width: 1000, Height: 1000},
			b:    Rect{X: 100, Y: 100, Width: 50, Height: 50},
			want: 1.0,
		},
		{
			name: "identical",
			a:    Rect{X: 10, Y: 10, Width: 300, Height: 250},
			b:    Rect{X: 10, Y: 10, Width: 300, Height: 250},
			want: 1.0,
		},
		{
			name: "sixty percent overlap",
			a:    Rect{X: 0, Y: 0, Width: 100, Height: 100},
			b:    Rect{X: 40, Y: 0, Width: 100, Height: 100},
			want: 0.6,
		},
		{
			name: "degenerate first rect",
			a:    Rect{X: 0, Y: 0, Width: 0, Height: 100},
			b:    Rect{X: 0, Y: 0, Width: 100, Height: 100},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := OverlapFraction(tt.a, tt.b)
			if !almostEqual(got, tt.want) {
				t.Errorf("OverlapFraction() = %v, want %v", got, tt.want)
			}

			// Symmetry holds for every pair.
			if rev := OverlapFraction(tt.b, tt.a); !almostEqual(got, rev) {
				t.Errorf("OverlapFraction not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestDetectStackedPairs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		rects     []Rect
		threshold float64
		wantPairs int
		wantMax   float64
	}{
		{
			name:      "no rectangles",
			rects:     nil,
			threshold: 0.5,
			wantPairs: 0,
			wantMax:   0,
		},
		{
			name: "two stacked ads",
			rects: []Rect{
				{X: 0, Y: 0, Width: 300, Height: 250},
				{X: 0, Y: 50, Width: 300, Height: 250},
			},
			threshold: 0.5,
			wantPairs: 1,
			wantMax:   0.8,
		},
		{
			name: "overlap exactly at threshold is not stacking",
			rects: []Rect{
				{X: 0, Y: 0, Width: 100, Height: 100},
				{X: 50, Y: 0, Width: 100, Height: 100},
			},
			threshold: 0.5,
			wantPairs: 0,
			wantMax:   0,
		},
		{
			name: "three mutually stacked",
			rects: []Rect{
				{X: 0, Y: 0, Width: 300, Height: 250},
				{X: 0, Y: 0, Width: 300, Height: 250},
				{X: 10, Y: 10, Width: 300, Height: 250},
			},
			threshold: 0.5,
			wantPairs: 3,
			wantMax:   1.0,
		},
		{
			name: "separated grid",
			rects: []Rect{
				{X: 0, Y: 0, Width: 300, Height: 250},
				{X: 400, Y: 0, Width: 300, Height: 250},
				{X: 0, Y: 400, Width: 300, Height: 250},
			},
			threshold: 0.5,
			wantPairs: 0,
			wantMax:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pairs := DetectStackedPairs(tt.rects, tt.threshold)
			if len(pairs) != tt.wantPairs {
				t.Errorf("DetectStackedPairs() returned %d pairs, want %d", len(pairs), tt.wantPairs)
			}
			if got := MaxOverlap(pairs); !almostEqual(got, tt.wantMax) {
				t.Errorf("MaxOverlap() = %v, want %v", got, tt.wantMax)
			}
			for _, p := range pairs {
				if p.A >= p.B {
					t.Errorf("pair indices not ordered: %+v", p)
				}
			}
		})
	}
}
