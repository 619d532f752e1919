package ids

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Namespace for structure ids. Stable across releases; changing it
// re-keys every persisted structure.
var structureNS = uuid.NewSHA1(uuid.NameSpaceURL, []byte("wastelands.ai/structure"))

// StructureID derives a stable id for a structure placed by the pipeline.
// The Y coordinate is excluded so a re-entrant placement at the same column
// always collides with the first one.
func StructureID(world, category string, x, z, rotation int) string {
	name := fmt.Sprintf("%s|%s|%d|%d|%d", world, category, x, z, rotation)
	return uuid.NewSHA1(structureNS, []byte(name)).String()
}

// NodeKey is the canonical key of a road node.
func NodeKey(world string, x, z int) string {
	return fmt.Sprintf("%s@%d,%d", world, x, z)
}

// ParseNodeKey splits a key built by NodeKey.
func ParseNodeKey(key string) (world string, x, z int, ok bool) {
	i := strings.LastIndexByte(key, '@')
	if i <= 0 || i+1 >= len(key) {
		return "", 0, 0, false
	}
	world = key[:i]
	coord := strings.Split(key[i+1:], ",")
	if len(coord) != 2 {
		return "", 0, 0, false
	}
	x, err1 := strconv.Atoi(coord[0])
	z, err2 := strconv.Atoi(coord[1])
	if err1 != nil || err2 != nil {
		return "", 0, 0, false
	}
	return world, x, z, true
}
