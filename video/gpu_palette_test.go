package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tholvik/dmgcore/addr"
	"github.com/tholvik/dmgcore/memory"
)

// solidShadeTile builds a 2bpp tile where every pixel decodes to the given
// shade index (0-3), by setting both bitplanes uniformly across all 8 rows.
func solidShadeTile(shade int) [16]byte {
	var tile [16]byte
	var low, high byte
	if shade&1 != 0 {
		low = 0xFF
	}
	if shade&2 != 0 {
		high = 0xFF
	}
	for row := 0; row < 8; row++ {
		tile[row*2] = low
		tile[row*2+1] = high
	}
	return tile
}

func TestRenderBackgroundAppliesCurrentPalette(t *testing.T) {
	tests := []struct {
		name  string
		bgp   byte
		shade int
		want  GBColor
	}{
		{"identity, shade 0", 0xE4, 0, WhiteColor},
		{"identity, shade 1", 0xE4, 1, LightGreyColor},
		{"identity, shade 2", 0xE4, 2, DarkGreyColor},
		{"identity, shade 3", 0xE4, 3, BlackColor},
		{"inverted, shade 0", 0x1B, 0, BlackColor},
		{"inverted, shade 1", 0x1B, 1, DarkGreyColor},
		{"inverted, shade 2", 0x1B, 2, LightGreyColor},
		{"inverted, shade 3", 0x1B, 3, WhiteColor},
		{"collapsed black, shade 0", 0xFF, 0, BlackColor},
		{"collapsed black, shade 3", 0xFF, 3, BlackColor},
		{"collapsed white, shade 0", 0x00, 0, WhiteColor},
		{"collapsed white, shade 3", 0x00, 3, WhiteColor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mmu := memory.New()
			ppu := NewPPU(mmu)

			mmu.Write(addr.LCDC, 0x91|0x10)
			mmu.Write(addr.BGP, tt.bgp)

			tile := solidShadeTile(tt.shade)
			for i, b := range tile {
				mmu.Write(addr.TileData0+uint16(i), b)
			}
			mmu.Write(addr.TileMap0, 0x00)
			mmu.Write(addr.SCX, 0)
			mmu.Write(addr.SCY, 0)

			ppu.scanline = 0
			ppu.stage = StageTransfer
			ppu.renderScanline()

			got := ppu.GetFrameBuffer().GetPixel(0, 0)
			assert.Equal(t, uint32(tt.want), got, "BGP 0x%02X shade %d", tt.bgp, tt.shade)
		})
	}
}

func TestRenderScanlineWindowSharesBackgroundPalette(t *testing.T) {
	mmu := memory.New()
	ppu := NewPPU(mmu)

	// LCD on, window tilemap 1 (0x9C00), window on, unsigned tile data, BG on.
	mmu.Write(addr.LCDC, 0xF1)
	mmu.Write(addr.BGP, 0x1B) // inverted, so the two shades below land on opposite ends

	bgTile := solidShadeTile(0)
	winTile := solidShadeTile(3)
	for i := 0; i < 16; i++ {
		mmu.Write(addr.TileData0+uint16(i), bgTile[i])
		mmu.Write(addr.TileData0+16+uint16(i), winTile[i])
	}
	for i := uint16(0); i < 32*32; i++ {
		mmu.Write(addr.TileMap0+i, 0x00)
		mmu.Write(addr.TileMap1+i, 0x01)
	}

	mmu.Write(addr.WX, 47) // window X origin 40 on-screen (WX - 7)
	mmu.Write(addr.WY, 40)
	mmu.Write(addr.SCX, 0)
	mmu.Write(addr.SCY, 0)

	ppu.scanline = 40
	ppu.stage = StageTransfer
	ppu.renderScanline()

	fb := ppu.GetFrameBuffer()
	assert.Equal(t, uint32(BlackColor), fb.GetPixel(30, 40), "pixel left of the window should show background shade 0 inverted to black")
	assert.Equal(t, uint32(WhiteColor), fb.GetPixel(50, 40), "pixel inside the window should show window shade 3 inverted to white")
}

func TestRenderScanlinePaletteIsAppliedPerScanline(t *testing.T) {
	mmu := memory.New()
	ppu := NewPPU(mmu)

	mmu.Write(addr.LCDC, 0x91|0x10)
	tile := solidShadeTile(2)
	for i, b := range tile {
		mmu.Write(addr.TileData0+uint16(i), b)
	}
	for i := uint16(0); i < 32*32; i++ {
		mmu.Write(addr.TileMap0+i, 0x00)
	}
	mmu.Write(addr.SCX, 0)
	mmu.Write(addr.SCY, 0)

	mmu.Write(addr.BGP, 0xE4)
	ppu.scanline = 0
	ppu.stage = StageTransfer
	ppu.renderScanline()
	firstLine := ppu.GetFrameBuffer().GetPixel(0, 0)
	assert.Equal(t, uint32(DarkGreyColor), firstLine, "scanline 0 should render under the palette active when it was drawn")

	mmu.Write(addr.BGP, 0x1B)
	ppu.scanline = 1
	ppu.stage = StageTransfer
	ppu.renderScanline()
	secondLine := ppu.GetFrameBuffer().GetPixel(0, 1)
	assert.Equal(t, uint32(LightGreyColor), secondLine, "scanline 1 should reflect the palette change")

	stillFirstLine := ppu.GetFrameBuffer().GetPixel(0, 0)
	assert.Equal(t, uint32(DarkGreyColor), stillFirstLine, "already-rendered scanline 0 must not be retroactively recolored")
}
