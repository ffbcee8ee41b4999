package video

// GBColor is one of the four DMG shades, packed as an RGBA8888 value so it
// can be handed straight to a pixel-buffer-based renderer.
type GBColor uint32

const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
	FramebufferSize   = FramebufferWidth * FramebufferHeight
)

// shadePalette maps a 2-bit DMG color index (as decoded from BGP/OBP0/OBP1)
// to its on-screen RGBA value. Index 0 is the lightest shade, 3 the darkest.
var shadePalette = [4]GBColor{
	WhiteColor,
	LightGreyColor,
	DarkGreyColor,
	BlackColor,
}

const (
	WhiteColor     GBColor = 0xFFFFFFFF
	LightGreyColor GBColor = 0x989898FF
	DarkGreyColor  GBColor = 0x4C4C4CFF
	BlackColor     GBColor = 0x000000FF
)

// ByteToColor converts a 2-bit DMG shade index (0-3) to its RGBA color.
// Any other value maps to transparent black.
func ByteToColor(shade byte) GBColor {
	if shade > 3 {
		return 0
	}
	return shadePalette[shade]
}

// FrameBuffer holds one rendered video frame as packed RGBA8888 pixels.
type FrameBuffer struct {
	w, h uint
	px   []uint32
}

// NewFrameBuffer allocates a blank (all-zero) 160x144 frame.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{
		w:  FramebufferWidth,
		h:  FramebufferHeight,
		px: make([]uint32, FramebufferSize),
	}
}

func (fb *FrameBuffer) index(x, y uint) uint {
	return y*fb.w + x
}

// GetPixel returns the packed RGBA color at (x, y).
func (fb *FrameBuffer) GetPixel(x, y uint) uint32 {
	return fb.px[fb.index(x, y)]
}

// SetPixel writes the packed RGBA color for (x, y).
func (fb *FrameBuffer) SetPixel(x, y uint, color GBColor) {
	fb.px[fb.index(x, y)] = uint32(color)
}

// ToSlice exposes the raw pixel storage, row-major, for renderer backends.
func (fb *FrameBuffer) ToSlice() []uint32 {
	return fb.px
}

// Clear blanks the frame to fully transparent black.
func (fb *FrameBuffer) Clear() {
	for i := range fb.px {
		fb.px[i] = 0
	}
}

// ToGrayscale reduces the frame to one DMG shade index (0-3) per pixel,
// useful for test assertions and simple comparisons that don't care about
// the exact RGBA encoding.
func (fb *FrameBuffer) ToGrayscale() []byte {
	out := make([]byte, len(fb.px))
	for i, packed := range fb.px {
		out[i] = shadeIndexOf(GBColor(packed))
	}
	return out
}

func shadeIndexOf(c GBColor) byte {
	for i, s := range shadePalette {
		if s == c {
			return byte(i)
		}
	}
	return 0
}
