package cubemap

import "fmt"

// Face identifies one of the six cube faces
type Face int

const (
	FaceRight Face = iota // +X
	FaceLeft              // -X
	FaceUp                // +Y
	FaceDown              // -Y
	FaceFront             // +Z
	FaceBack              // -Z

	// FaceCount is the number of cube faces
	FaceCount = 6
)

// Faces returns all six faces in canonical order
func Faces() []Face {
	return []Face{FaceRight, FaceLeft, FaceUp, FaceDown, FaceFront, FaceBack}
}

// Letter returns the single-letter face identifier used in tile paths
func (f Face) Letter() string {
	switch f {
	case FaceRight:
		return "r"
	case FaceLeft:
		return "l"
	case FaceUp:
		return "u"
	case FaceDown:
		return "d"
	case FaceFront:
		return "f"
	case FaceBack:
		return "b"
	}
	panic(fmt.Sprintf("cubemap: invalid face %d", int(f)))
}

// Orientation returns the human-readable orientation used in the manifest
func (f Face) Orientation() string {
	switch f {
	case FaceRight:
		return "right"
	case FaceLeft:
		return "left"
	case FaceUp:
		return "up"
	case FaceDown:
		return "down"
	case FaceFront:
		return "front"
	case FaceBack:
		return "back"
	}
	panic(fmt.Sprintf("cubemap: invalid face %d", int(f)))
}

// String returns the orientation name
func (f Face) String() string {
	return f.Orientation()
}

// FaceDirection maps a face-local UV coordinate (each in [0,1)) to a 3D
// direction vector pointing through that pixel. The vector is not normalized;
// the inverse projection divides by its length.
//
// Axis assignment per face:
//
//	right (+X): ( 1, -vc, -uc)     left  (-X): (-1, -vc,  uc)
//	up    (+Y): (uc,   1,  vc)     down  (-Y): (uc,  -1, -vc)
//	front (+Z): (uc, -vc,   1)     back  (-Z): (-uc, -vc, -1)
//
// where uc = 2u-1 and vc = 2v-1.
func FaceDirection(f Face, u, v float64) (x, y, z float64) {
	uc := 2*u - 1
	vc := 2*v - 1

	switch f {
	case FaceRight:
		return 1, -vc, -uc
	case FaceLeft:
		return -1, -vc, uc
	case FaceUp:
		return uc, 1, vc
	case FaceDown:
		return uc, -1, -vc
	case FaceFront:
		return uc, -vc, 1
	case FaceBack:
		return -uc, -vc, -1
	}
	panic(fmt.Sprintf("cubemap: invalid face %d", int(f)))
}
