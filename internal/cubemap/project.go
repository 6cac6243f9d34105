package cubemap

import (
	"fmt"
	"math"
)

// GeometryError reports a degenerate direction vector reaching the inverse
// projection. The fixed face construction cannot produce one, so this always
// indicates an internal invariant violation.
type GeometryError struct {
	X, Y, Z float64
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("degenerate direction vector (%g, %g, %g)", e.X, e.Y, e.Z)
}

// EquirectUV projects a 3D direction onto the equirectangular image plane,
// returning normalized (u, v) in [0,1]x[0,1]. The direction does not need to
// be unit length. v=0 is the north pole (+Y), v=1 the south pole (-Y).
func EquirectUV(x, y, z float64) (u, v float64, err error) {
	length := math.Sqrt(x*x + y*y + z*z)
	if length == 0 {
		return 0, 0, &GeometryError{X: x, Y: y, Z: z}
	}

	theta := math.Atan2(z, x)
	phi := math.Acos(y / length)

	u = (theta + math.Pi) / (2 * math.Pi)
	v = phi / math.Pi
	return u, v, nil
}
