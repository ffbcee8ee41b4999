package video

// SpriteRowOwners tracks, for a single scanline, which OAM sprite index owns
// each of the 160 horizontal pixel slots. The DMG PPU resolves sprite-vs-sprite
// overlap without sorting: whichever sprite claims a pixel first under the
// priority rule below keeps it for the rest of the scanline.
//
// Priority rule (see https://gbdev.io/pandocs/OAM.html#drawing-priority):
//  1. the sprite with the lower X coordinate wins;
//  2. if X coordinates are equal, the sprite with the lower OAM index wins.
//
// Example: a sprite at OAM index 0, X=5 and one at index 1, X=10, both 8
// pixels wide. Sprite 0 covers pixels 5-12, sprite 1 covers 10-17; since
// sprite 0 has the lower X it wins pixels 10-12 as well as its own 5-9.
type SpriteRowOwners struct {
	owner [FramebufferWidth]int // OAM index that owns each pixel, -1 if none
	atX   [FramebufferWidth]int // X of the sprite that currently owns each pixel
}

// Reset clears ownership ahead of evaluating a new scanline.
func (o *SpriteRowOwners) Reset() {
	for i := range o.owner {
		o.owner[i] = -1
		o.atX[i] = 0xFF
	}
}

// Claim tries to give pixel x to the sprite at the given OAM index with the
// given X coordinate, applying the priority rule above. It reports whether
// the sprite now owns the pixel.
func (o *SpriteRowOwners) Claim(x, oamIndex, spriteX int) bool {
	if x < 0 || x >= FramebufferWidth {
		return false
	}

	holder := o.owner[x]
	switch {
	case holder == -1:
	case spriteX < o.atX[x]:
	case spriteX == o.atX[x] && oamIndex < holder:
	default:
		return false
	}

	o.owner[x] = oamIndex
	o.atX[x] = spriteX
	return true
}

// OwnerAt reports which OAM index currently owns pixel x, or -1.
func (o *SpriteRowOwners) OwnerAt(x int) int {
	if x < 0 || x >= FramebufferWidth {
		return -1
	}
	return o.owner[x]
}
