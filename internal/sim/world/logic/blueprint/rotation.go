package blueprint

// NormalizeRotation converts a rotation value into a stable quarter-turn
// count in [0,3].
//
// It accepts either quarter-turns (0..3) or degrees (multiples of 90).
func NormalizeRotation(r int) int {
	// Treat large multiples of 90 as degrees.
	if r%90 == 0 && (r > 3 || r < -3) {
		r = r / 90
	}
	r %= 4
	if r < 0 {
		r += 4
	}
	return r
}

// SwapsAxes reports whether a rotation exchanges the X and Z extents of a
// footprint (90 and 270 degrees).
func SwapsAxes(r int) bool {
	return NormalizeRotation(r)%2 == 1
}

// RotatedExtents returns the world-aligned X and Z extents of a footprint
// with local extents sx, sz after rotation r.
func RotatedExtents(sx, sz, r int) (int, int) {
	if SwapsAxes(r) {
		return sz, sx
	}
	return sx, sz
}

// FacingRotation maps a cardinal offset direction from a road node to the
// rotation that turns a building's front back toward the road.
// East=90, South=180, West=270, North=0.
func FacingRotation(dirX, dirZ int) int {
	switch {
	case dirX > 0:
		return 90
	case dirX < 0:
		return 270
	case dirZ > 0:
		return 180
	default:
		return 0
	}
}

// RotateInFootprint rotates a local block offset so the result stays inside
// the rotated footprint anchored at the origin corner: x in [0,sx') and
// z in [0,sz') where (sx',sz') = RotatedExtents(sx,sz,rot).
func RotateInFootprint(off [3]int, sx, sz, rot int) [3]int {
	x, z := off[0], off[2]
	switch rot & 3 {
	case 0:
		return off
	case 1:
		return [3]int{sz - 1 - z, off[1], x}
	case 2:
		return [3]int{sx - 1 - x, off[1], sz - 1 - z}
	default: // 3
		return [3]int{z, off[1], sx - 1 - x}
	}
}
