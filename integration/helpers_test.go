package integration

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// orbPoint spreads points over a 5x5 lattice inside tile 14/4680/6260.
func orbPoint(i int) orb.Point {
	b := maptile.New(4680, 6260, 14).Bound()
	fx := (float64(i%5) + 0.5) / 5
	fy := (float64(i/5) + 0.5) / 5
	return orb.Point{
		b.Min.X() + fx*(b.Max.X()-b.Min.X()),
		b.Min.Y() + fy*(b.Max.Y()-b.Min.Y()),
	}
}
