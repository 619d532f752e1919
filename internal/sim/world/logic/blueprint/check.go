package blueprint

type BlockGetter func(x, y, z int) uint16

type PlacementBlock struct {
	Pos   [3]int
	Block string
}

// CheckPlaced reports whether every blueprint block sits at its rotated
// offset from origin. Offsets are rotated inside the footprint (sx, sz) so
// a placed structure always occupies the positive quadrant from origin.
func CheckPlaced(getBlock BlockGetter, blockIndex map[string]uint16, blocks []PlacementBlock, origin [3]int, sx, sz, rotation int) bool {
	if getBlock == nil || len(blocks) == 0 {
		return false
	}
	rot := NormalizeRotation(rotation)
	for _, b := range blocks {
		want, ok := blockIndex[b.Block]
		if !ok {
			return false
		}
		off := RotateInFootprint(b.Pos, sx, sz, rot)
		if getBlock(origin[0]+off[0], origin[1]+off[1], origin[2]+off[2]) != want {
			return false
		}
	}
	return true
}
