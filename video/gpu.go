package video

import (
	"fmt"
	"log/slog"

	"github.com/tholvik/dmgcore/addr"
	"github.com/tholvik/dmgcore/bit"
	"github.com/tholvik/dmgcore/memory"
)

// Stage is one of the four rendering stages the PPU cycles through for
// every scanline. The numeric values match STAT bits 1-0.
type Stage int

const (
	// StageHBlank (mode 0): between scanlines, CPU has full VRAM/OAM access.
	StageHBlank Stage = 0
	// StageVBlank (mode 1): the ten blank lines after the last visible row.
	StageVBlank Stage = 1
	// StageOAMScan (mode 2): PPU is walking OAM, CPU cannot touch OAM.
	StageOAMScan Stage = 2
	// StageTransfer (mode 3): PPU is pushing pixels, VRAM/OAM both locked.
	StageTransfer Stage = 3
)

// Scanline timing, in clock cycles. A full visible line is the sum of the
// three active stages; ten extra VBlank lines follow line 143.
const (
	cyclesHBlank   = 204
	cyclesOAMScan  = 80
	cyclesTransfer = 172
	cyclesPerLine  = cyclesOAMScan + cyclesTransfer + cyclesHBlank

	cyclesPerFrame = 70224
)

// PPU renders the background, window, and sprite layers into a FrameBuffer
// one scanline at a time, driven by Tick in lockstep with the CPU.
type PPU struct {
	bus   *memory.MMU
	frame *FrameBuffer

	bgShade  []byte // DMG shade index (0-3) painted per pixel by BG/window, for sprite priority
	sprites  SpriteRowOwners
	stage    Stage
	scanline int // LY, 0-153

	stageCycles  int // cycles elapsed in the current stage
	vblankCycles int // cycles elapsed since entering VBlank
	vblankRow    int // which of the ten VBlank lines we're on (0-9)
	pixelCursor  int
	tileCycles   int
	lineDrawn    bool // whether the current scanline has been rasterized yet
	windowRow    int  // internal window line counter, independent of LY
}

// NewPPU creates a PPU wired to bus, reset to the post-VBlank state a real
// DMG is in once the boot ROM hands off control.
func NewPPU(bus *memory.MMU) *PPU {
	p := &PPU{
		bus:      bus,
		frame:    NewFrameBuffer(),
		bgShade:  make([]byte, FramebufferSize),
		stage:    StageVBlank,
		scanline: 144,
	}

	lcdc := bus.Read(addr.LCDC)
	bgp := bus.Read(addr.BGP)
	slog.Debug("ppu initialized", "LCDC", fmt.Sprintf("0x%02X", lcdc), "lcd_on", lcdc&0x80 != 0, "BGP", fmt.Sprintf("0x%02X", bgp))

	return p
}

// GetFrameBuffer returns the frame currently being (or most recently)
// rendered. The caller must not retain it past the next Tick call that
// completes a scanline.
func (p *PPU) GetFrameBuffer() *FrameBuffer {
	return p.frame
}

// Tick advances the PPU state machine by the given number of clock cycles.
func (p *PPU) Tick(cycles int) {
	p.stageCycles += cycles

	switch p.stage {
	case StageHBlank:
		p.tickHBlank()
	case StageVBlank:
		p.tickVBlank(cycles)
	case StageOAMScan:
		p.tickOAMScan()
	case StageTransfer:
		p.tickTransfer()
	}

	if p.stageCycles >= cyclesPerFrame {
		p.stageCycles -= cyclesPerFrame
	}
}

func (p *PPU) tickHBlank() {
	if p.stageCycles < cyclesHBlank {
		return
	}
	p.stageCycles -= cyclesHBlank
	p.setStage(StageOAMScan)
	p.setScanline(p.scanline + 1)

	switch {
	case p.scanline == 144:
		p.setStage(StageVBlank)
		p.vblankRow = 0
		p.vblankCycles = p.stageCycles
		p.windowRow = 0

		p.bus.RequestInterrupt(addr.VBlankInterrupt)
		if p.bus.ReadBit(statVblankIrq, addr.STAT) {
			p.bus.RequestInterrupt(addr.LCDSTATInterrupt)
		}
	case p.bus.ReadBit(statOamIrq, addr.STAT):
		p.bus.RequestInterrupt(addr.LCDSTATInterrupt)
	}
}

func (p *PPU) tickVBlank(delta int) {
	p.vblankCycles += delta

	if p.vblankCycles >= cyclesPerLine {
		p.vblankCycles -= cyclesPerLine
		p.vblankRow++
		if p.vblankRow <= 9 {
			p.setScanline(p.scanline + 1)
		}
	}

	if p.stageCycles >= 4104 && p.vblankCycles >= 4 && p.scanline == 153 {
		p.setScanline(0)
	}

	if p.stageCycles >= 4560 {
		p.stageCycles -= 4560
		p.setStage(StageOAMScan)
		if p.bus.ReadBit(statOamIrq, addr.STAT) {
			p.bus.RequestInterrupt(addr.LCDSTATInterrupt)
		}
	}
}

func (p *PPU) tickOAMScan() {
	if p.stageCycles < cyclesOAMScan {
		return
	}
	p.stageCycles -= cyclesOAMScan
	p.setStage(StageTransfer)
	p.lineDrawn = false
}

func (p *PPU) tickTransfer() {
	if !p.lineDrawn {
		if p.lcdOn() {
			p.renderScanline()
		}
		p.lineDrawn = true
	}

	if p.stageCycles < cyclesTransfer {
		return
	}
	p.pixelCursor = 0
	p.stageCycles -= cyclesTransfer
	p.tileCycles = 0
	p.setStage(StageHBlank)

	if p.bus.ReadBit(statHblankIrq, addr.STAT) {
		p.bus.RequestInterrupt(addr.LCDSTATInterrupt)
	}
}

// renderScanline paints the current line (background, window, sprites, in
// that priority order) or blanks it to white if the LCD is off.
func (p *PPU) renderScanline() {
	if !p.lcdOn() {
		start := p.scanline * FramebufferWidth
		for i := 0; i < FramebufferWidth; i++ {
			p.frame.px[start+i] = uint32(WhiteColor)
		}
		return
	}

	p.renderBackground()
	p.renderWindow()
	p.renderSprites()
}

// tileLayerGeometry is the set of addressing choices shared by the
// background and window layers: which tile data block to read from and
// which 32x32 tile map to index into.
type tileLayerGeometry struct {
	signed    bool
	dataBase  uint16
	mapBase   uint16
}

func (p *PPU) backgroundGeometry() tileLayerGeometry {
	g := tileLayerGeometry{
		signed:   !p.lcdBit(bgWindowTileDataSelect),
		dataBase: addr.TileData0,
		mapBase:  addr.TileMap1,
	}
	if g.signed {
		g.dataBase = addr.TileData2
	}
	if !p.lcdBit(bgTileMapDisplaySelect) {
		g.mapBase = addr.TileMap0
	}
	return g
}

func (p *PPU) windowGeometry() tileLayerGeometry {
	g := tileLayerGeometry{
		signed:   !p.lcdBit(bgWindowTileDataSelect),
		dataBase: addr.TileData0,
		mapBase:  addr.TileMap1,
	}
	if g.signed {
		g.dataBase = addr.TileData2
	}
	if !p.lcdBit(windowTileMapSelect) {
		g.mapBase = addr.TileMap0
	}
	return g
}

// tileRowAddress resolves the VRAM address of a tile's pixel row, honoring
// the PPU's signed/unsigned tile-number addressing mode.
func tileRowAddress(g tileLayerGeometry, tileIndex byte, rowBytes int) uint16 {
	if g.signed {
		return uint16(int(g.dataBase) + int(int8(tileIndex))*16 + rowBytes)
	}
	return g.dataBase + uint16(int(tileIndex)*16+rowBytes)
}

// tileRowPixel extracts the 2-bit DMG color index for one pixel of a decoded
// tile row, given its low/high bitplane bytes and bit position (7=leftmost).
func tileRowPixel(low, high byte, bitPos uint8) byte {
	var v byte
	if bit.IsSet(bitPos, low) {
		v |= 1
	}
	if bit.IsSet(bitPos, high) {
		v |= 2
	}
	return v
}

func (p *PPU) renderBackground() {
	rowStart := p.scanline * FramebufferWidth

	if !p.lcdBit(bgDisplay) {
		shade := p.bus.Read(addr.BGP) & 0x03
		color := uint32(ByteToColor(shade))
		for i := 0; i < FramebufferWidth; i++ {
			p.frame.px[rowStart+i] = color
			p.bgShade[rowStart+i] = 0
		}
		return
	}

	geo := p.backgroundGeometry()

	scx := p.bus.Read(addr.SCX)
	scy := p.bus.Read(addr.SCY)
	bgRow := (p.scanline + int(scy)) & 0xFF
	tileRow32 := (bgRow / 8) * 32
	rowBytes := (bgRow % 8) * 2

	for screenX := 0; screenX < FramebufferWidth; screenX++ {
		mapX := (screenX + int(scx)) & 0xFF
		tileCol := mapX / 8
		colInTile := mapX % 8

		tileIndex := p.bus.Read(geo.mapBase + uint16(tileRow32+tileCol))
		tileAddr := tileRowAddress(geo, tileIndex, rowBytes)

		low := p.bus.Read(tileAddr)
		high := p.bus.Read(tileAddr + 1)
		shade := tileRowPixel(low, high, uint8(7-colInTile))

		pos := rowStart + screenX
		p.frame.px[pos] = uint32(p.shadeUnder(addr.BGP, shade))
		p.bgShade[pos] = shade
	}
}

func (p *PPU) renderWindow() {
	if p.windowRow > 143 {
		return
	}
	if !p.lcdBit(windowDisplayEnable) {
		return
	}

	wx := p.bus.Read(addr.WX) - 7
	wy := p.bus.Read(addr.WY)
	if wx > 159 {
		return
	}
	if wy > 143 || int(wy) > p.scanline {
		return
	}

	geo := p.windowGeometry()

	tileRow32 := (p.windowRow / 8) * 32
	rowBytes := (p.windowRow & 7) * 2
	rowStart := p.scanline * FramebufferWidth

	visibleTiles := (FramebufferWidth - int(wx) + 7) / 8
	if visibleTiles > 32 {
		visibleTiles = 32
	}

	for tileCol := 0; tileCol < visibleTiles; tileCol++ {
		tileIndex := p.bus.Read(geo.mapBase + uint16(tileRow32+tileCol))
		tileAddr := tileRowAddress(geo, tileIndex, rowBytes)

		low := p.bus.Read(tileAddr)
		high := p.bus.Read(tileAddr + 1)

		for px := 0; px < 8; px++ {
			screenX := tileCol*8 + px + int(wx)
			if screenX < int(wx) || screenX >= FramebufferWidth {
				continue
			}
			pos := rowStart + screenX
			if pos >= len(p.frame.px) {
				continue
			}

			shade := tileRowPixel(low, high, uint8(7-px))
			p.frame.px[pos] = uint32(p.shadeUnder(addr.BGP, shade))
			p.bgShade[pos] = shade
		}
	}

	p.windowRow++
}

// scannedSprite is one entry produced by the OAM selection pass: enough to
// re-derive its attributes without re-reading OAM during rendering.
type scannedSprite struct {
	oamIndex int
	y, x     int
}

func (p *PPU) renderSprites() {
	if !p.lcdBit(spriteDisplayEnable) {
		return
	}

	height := 8
	if p.lcdBit(spriteSize) {
		height = 16
	}

	visible := p.scanSpritesOnLine(height)

	p.sprites.Reset()
	for _, s := range visible {
		for dx := 0; dx < 8; dx++ {
			p.sprites.Claim(s.x+dx, s.oamIndex, s.x)
		}
	}

	rowStart := p.scanline * FramebufferWidth
	for _, s := range visible {
		p.renderOneSprite(s, height, rowStart)
	}
}

// scanSpritesOnLine walks all 40 OAM entries in order (Pan Docs: OAM
// selection priority) and returns the ones that overlap the current
// scanline, capped at the hardware limit of 10. X-axis visibility does not
// affect selection: an off-screen sprite still counts toward the limit.
func (p *PPU) scanSpritesOnLine(height int) []scannedSprite {
	var found []scannedSprite

	for i := 0; i < 40; i++ {
		oamAddr := addr.OAMStart + uint16(i*4)
		y := int(p.bus.Read(oamAddr)) - 16

		if y > p.scanline || y+height <= p.scanline {
			continue
		}

		x := int(p.bus.Read(oamAddr+1)) - 8
		found = append(found, scannedSprite{oamIndex: i, y: y, x: x})

		if len(found) >= 10 {
			break
		}
	}

	return found
}

func (p *PPU) renderOneSprite(s scannedSprite, height, rowStart int) {
	owns := false
	for dx := 0; dx < 8; dx++ {
		if p.sprites.OwnerAt(s.x+dx) == s.oamIndex {
			owns = true
			break
		}
	}
	if !owns {
		return
	}

	oamAddr := addr.OAMStart + uint16(s.oamIndex*4)
	tileNum := p.bus.Read(oamAddr + 2)
	flags := p.bus.Read(oamAddr + 3)

	tileMask := byte(0xFF)
	if height == 16 {
		tileMask = 0xFE
	}

	paletteAddr := addr.OBP0
	if bit.IsSet(4, flags) {
		paletteAddr = addr.OBP1
	}
	flipX := bit.IsSet(5, flags)
	flipY := bit.IsSet(6, flags)
	aboveBG := !bit.IsSet(7, flags)

	row := p.scanline - s.y
	if flipY {
		row = height - 1 - row
	}

	rowBytes := row * 2
	tileOffset := 0
	if height == 16 && row >= 8 {
		rowBytes = (row - 8) * 2
		tileOffset = 16
	}

	tileAddr := addr.TileData0 + uint16(int(tileNum&tileMask)*16+rowBytes+tileOffset)
	low := p.bus.Read(tileAddr)
	high := p.bus.Read(tileAddr + 1)

	for dx := 0; dx < 8; dx++ {
		screenX := s.x + dx
		if p.sprites.OwnerAt(screenX) != s.oamIndex {
			continue
		}

		bitPos := uint8(7 - dx)
		if flipX {
			bitPos = uint8(dx)
		}

		shade := tileRowPixel(low, high, bitPos)
		if shade == 0 {
			continue
		}

		pos := rowStart + screenX
		if !aboveBG && p.bgShade[pos] != 0 {
			continue
		}

		p.frame.px[pos] = uint32(p.shadeUnder(paletteAddr, shade))
	}
}

// shadeUnder resolves a 2-bit DMG color index through the given palette
// register (BGP, OBP0, or OBP1) to its displayed RGBA color.
func (p *PPU) shadeUnder(paletteAddr uint16, colorIndex byte) GBColor {
	palette := p.bus.Read(paletteAddr)
	shade := (palette >> (colorIndex * 2)) & 0x03
	return ByteToColor(shade)
}

// STAT register bit positions (see https://gbdev.io/pandocs/STAT.html).
const (
	statLycIrq    uint8 = 6
	statOamIrq    uint8 = 5
	statVblankIrq uint8 = 4
	statHblankIrq uint8 = 3
	statLycEqual  uint8 = 2
)

// LCDC register bit positions (see https://gbdev.io/pandocs/LCDC.html).
const (
	lcdDisplayEnable       uint8 = 7
	windowTileMapSelect    uint8 = 6
	windowDisplayEnable    uint8 = 5
	bgWindowTileDataSelect uint8 = 4
	bgTileMapDisplaySelect uint8 = 3
	spriteSize             uint8 = 2
	spriteDisplayEnable    uint8 = 1
	bgDisplay              uint8 = 0
)

func (p *PPU) lcdBit(b uint8) bool {
	return bit.IsSet(b, p.bus.Read(addr.LCDC))
}

func (p *PPU) lcdOn() bool {
	return p.lcdBit(lcdDisplayEnable)
}

// syncLYC compares LY against LYC, latches the result into STAT bit 2, and
// raises the LCDSTAT interrupt if the match is enabled and just occurred.
func (p *PPU) syncLYC() {
	ly := p.bus.Read(addr.LY)
	lyc := p.bus.Read(addr.LYC)
	stat := p.bus.Read(addr.STAT)

	if ly == lyc {
		stat = bit.Set(statLycEqual, stat)
		if bit.IsSet(statLycIrq, stat) {
			p.bus.RequestInterrupt(addr.LCDSTATInterrupt)
		}
	} else {
		stat = bit.Reset(statLycEqual, stat)
	}

	p.bus.Write(addr.STAT, stat)
}

// setStage writes the new stage into STAT bits 1-0.
func (p *PPU) setStage(s Stage) {
	p.stage = s
	stat := p.bus.Read(addr.STAT)
	p.bus.Write(addr.STAT, stat&0xFC|byte(s))
}

// setScanline updates LY and re-evaluates the LY/LYC comparison.
func (p *PPU) setScanline(line int) {
	p.scanline = line
	p.bus.Write(addr.LY, byte(line))
	p.syncLYC()
}
