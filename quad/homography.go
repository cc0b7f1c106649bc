package quad

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Homography is a projective transform in homogeneous coordinates, row-major:
//
//	x = (H[0]*u + H[1]*v + H[2]) / w
//	y = (H[3]*u + H[4]*v + H[5]) / w
//	w =  H[6]*u + H[7]*v + H[8]
type Homography f64.Mat3

// Identity returns the transform which maps every point onto itself.
func Identity() Homography {
	return Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// UnitSquareTo returns the transform mapping (0,0), (1,0), (0,1) and (1,1)
// onto q.TopLeft, q.TopRight, q.BottomLeft and q.BottomRight respectively.
//
// ErrDegenerate is returned if q is degenerate or self-intersecting (the
// line at infinity would cross the unit square).
func UnitSquareTo(q Quad) (Homography, error) {
	if err := q.Validate(); err != nil {
		return Homography{}, err
	}

	square := [4]Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	target := q.Points()

	var a [8][8]float64
	var b [8]float64
	for i := range square {
		u, v := square[i].X, square[i].Y
		x, y := target[i].X, target[i].Y
		r := 2 * i
		a[r] = [8]float64{u, v, 1, 0, 0, 0, -u * x, -v * x}
		b[r] = x
		a[r+1] = [8]float64{0, 0, 0, u, v, 1, -u * y, -v * y}
		b[r+1] = y
	}

	h, ok := solve8x8(a, b)
	if !ok {
		return Homography{}, ErrDegenerate{Quad: q, Reason: "singular projective system"}
	}
	result := Homography{h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7], 1}

	// w is affine in (u, v), so it keeps its sign over the whole square iff
	// it keeps it over the corners.
	var minW, maxW = math.Inf(1), math.Inf(-1)
	for _, p := range square {
		w := result.denominator(p.X, p.Y)
		minW, maxW = math.Min(minW, w), math.Max(maxW, w)
	}
	if minW <= epsilonDenominator && maxW >= -epsilonDenominator {
		return Homography{}, ErrDegenerate{Quad: q, Reason: "self-intersecting outline"}
	}

	return result, nil
}

const epsilonDenominator = 1e-9

func (h Homography) denominator(u, v float64) float64 {
	return h[6]*u + h[7]*v + h[8]
}

// Apply maps (u, v); ok is false if the point maps to infinity.
func (h Homography) Apply(u, v float64) (x, y float64, ok bool) {
	w := h.denominator(u, v)
	if w == 0 {
		return 0, 0, false
	}
	x = (h[0]*u + h[1]*v + h[2]) / w
	y = (h[3]*u + h[4]*v + h[5]) / w
	return x, y, true
}

func (h Homography) Determinant() float64 {
	return h[0]*(h[4]*h[8]-h[5]*h[7]) -
		h[1]*(h[3]*h[8]-h[5]*h[6]) +
		h[2]*(h[3]*h[7]-h[4]*h[6])
}

// Inverse returns the transform undoing h, normalized so that its last
// element is 1 when possible.
func (h Homography) Inverse() (Homography, bool) {
	det := h.Determinant()
	if math.Abs(det) < epsilonDenominator {
		return Homography{}, false
	}
	inv := Homography{
		(h[4]*h[8] - h[5]*h[7]) / det,
		(h[2]*h[7] - h[1]*h[8]) / det,
		(h[1]*h[5] - h[2]*h[4]) / det,
		(h[5]*h[6] - h[3]*h[8]) / det,
		(h[0]*h[8] - h[2]*h[6]) / det,
		(h[2]*h[3] - h[0]*h[5]) / det,
		(h[3]*h[7] - h[4]*h[6]) / det,
		(h[1]*h[6] - h[0]*h[7]) / det,
		(h[0]*h[4] - h[1]*h[3]) / det,
	}
	if inv[8] != 0 {
		s := inv[8]
		for i := range inv {
			inv[i] /= s
		}
	}
	return inv, true
}

// solve8x8 solves a*x = b with Gauss-Jordan elimination and partial pivoting.
func solve8x8(a [8][8]float64, b [8]float64) ([8]float64, bool) {
	const n = 8
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < epsilonPivot {
			return [8]float64{}, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		div := a[col][col]
		for c := col; c < n; c++ {
			a[col][c] /= div
		}
		b[col] /= div

		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := a[r][col]
			if factor == 0 {
				continue
			}
			for c := col; c < n; c++ {
				a[r][c] -= factor * a[col][c]
			}
			b[r] -= factor * b[col]
		}
	}
	return b, true
}

const epsilonPivot = 1e-12
