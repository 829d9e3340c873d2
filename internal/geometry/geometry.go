package geometry

// Rect is an axis-aligned rectangle in page coordinates.
// X and Y locate the top-left corner; Y grows downward, matching
// browser layout coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns the rectangle's area in square pixels.
// Degenerate rectangles (non-positive width or height) have zero area.
func (r Rect) Area() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// intersectionArea returns the area of the overlap between a and b,
// or 0 when they do not overlap.
func intersectionArea(a, b Rect) float64 {
	w := min(a.Right(), b.Right()) - max(a.X, b.X)
	if w <= 0 {
		return 0
	}
	h := min(a.Bottom(), b.Bottom()) - max(a.Y, b.Y)
	if h <= 0 {
		return 0
	}
	return w * h
}

// IntersectionRatio returns the fraction of r that lies inside bounds,
// clamped to [0, 1]. A degenerate r yields 0.
//
// Design decision: The ratio is asymmetric on purpose. Viewability asks
// "how much of this element is inside the viewport", so the divisor is
// always the element's own area, never the viewport's.
func IntersectionRatio(r, bounds Rect) float64 {
	area := r.Area()
	if area <= 0 {
		return 0
	}
	ratio := intersectionArea(r, bounds) / area
	return clamp01(ratio)
}

// OverlapFraction returns the larger of the two directional overlap
// fractions between a and b: intersection area divided by each
// rectangle's own area. The symmetric maximum catches a small element
// fully covered by a large one regardless of argument order.
// Returns 0 when either rectangle is degenerate.
func OverlapFraction(a, b Rect) float64 {
	areaA, areaB := a.Area(), b.Area()
	if areaA <= 0 || areaB <= 0 {
		return 0
	}
	overlap := intersectionArea(a, b)
	if overlap <= 0 {
		return 0
	}
	return clamp01(max(overlap/areaA, overlap/areaB))
}

// StackedPair records two rectangles whose mutual overlap exceeded the
// stacking threshold. A and B are indices into the slice passed to
// DetectStackedPairs, with A < B.
type StackedPair struct {
	A       int     `json:"first_index"`
	B       int     `json:"second_index"`
	Overlap float64 `json:"overlap_fraction"`
}

// DetectStackedPairs compares every unordered pair of rectangles and
// returns those whose OverlapFraction strictly exceeds threshold.
//
// Design decision: This is a plain O(n^2) sweep. Pages carry tens of ad
// slots, not thousands, so an interval tree would add code without
// measurable benefit.
func DetectStackedPairs(rects []Rect, threshold float64) []StackedPair {
	var pairs []StackedPair
	for i := 0; i < len(rects); i++ {
		for j := i + 1; j < len(rects); j++ {
			frac := OverlapFraction(rects[i], rects[j])
			if frac > threshold {
				pairs = append(pairs, StackedPair{A: i, B: j, Overlap: frac})
			}
		}
	}
	return pairs
}

// MaxOverlap returns the largest overlap fraction among the given pairs,
// or 0 for an empty slice.
func MaxOverlap(pairs []StackedPair) float64 {
	var m float64
	for _, p := range pairs {
		if p.Overlap > m {
			m = p.Overlap
		}
	}
	return m
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
