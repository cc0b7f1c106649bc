package quad

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuadArea(t *testing.T) {
	require.InDelta(t, 1, Full().Area(), 1e-12)
	require.InDelta(t, 0.5, FromRectangle(0, 0, 0.5, 1).Area(), 1e-12)
	require.InDelta(t, 200*100, Full().ToPixels(200, 100).Area(), 1e-9)
}

func TestQuadPixels(t *testing.T) {
	q := FromRectangle(10, 20, 100, 50)
	n := FromPixels(q, 200, 100)
	require.Equal(t, Point{X: 0.05, Y: 0.2}, n.TopLeft)
	require.Equal(t, Point{X: 0.55, Y: 0.7}, n.BottomRight)
	require.True(t, n.IsRectangle())

	back := n.ToPixels(200, 100)
	for i, p := range back.Points() {
		require.InDelta(t, q.Points()[i].X, p.X, 1e-9)
		require.InDelta(t, q.Points()[i].Y, p.Y, 1e-9)
	}
}

func TestQuadValidate(t *testing.T) {
	p := Point{X: 0.3, Y: 0.3}
	for _, tc := range []struct {
		name  string
		quad  Quad
		valid bool
	}{
		{"full", Full(), true},
		{"perspective", New(Point{0.1, 0.1}, Point{0.9, 0.2}, Point{0, 1}, Point{1, 0.9}), true},
		{"mirrored", New(Point{1, 0}, Point{0, 0}, Point{1, 1}, Point{0, 1}), true},
		{"all_identical", New(p, p, p, p), false},
		{"three_collinear", New(Point{0, 0}, Point{0.5, 0}, Point{1, 0}, Point{1, 1}), false},
		{"flat", New(Point{0, 0}, Point{1, 0}, Point{0, 0}, Point{1, 0}), false},
		{"nan", New(Point{math.NaN(), 0}, Point{1, 0}, Point{0, 1}, Point{1, 1}), false},
		{"bow_tie", New(Point{0, 0}, Point{1, 0}, Point{1, 1}, Point{0, 1}), false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.quad.Validate()
			if tc.valid {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var errDegenerate ErrDegenerate
			require.True(t, errors.As(err, &errDegenerate))
			require.Equal(t, tc.quad.String(), errDegenerate.Quad.String())
		})
	}
}
