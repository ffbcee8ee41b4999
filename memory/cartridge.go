package memory

import (
	"fmt"
	"os"

	"github.com/tholvik/dmgcore/bit"
)

const titleLength = 11

// minROMSize is the smallest valid ROM image: a single 32KB bank pair,
// large enough to contain the full 0x0000-0x14F header.
const minROMSize = 0x8000

const (
	titleAddress          = 0x134
	cartridgeTypeAddress  = 0x147
	ramSizeAddress        = 0x149
	versionNumberAddress  = 0x14C
	headerChecksumAddress = 0x14D
	globalChecksumAddress = 0x14E
)

// MBCType identifies which memory bank controller a cartridge's header
// declares. Only the controllers spec.md names are distinguished;
// everything else collapses to MBCUnknownType.
type MBCType uint8

const (
	NoMBCType MBCType = iota
	MBC1Type
	MBC1MultiType
	MBCUnknownType
)

// Cartridge holds a ROM image plus the header fields needed to pick and
// size its memory bank controller.
type Cartridge struct {
	data           []byte
	title          string
	headerChecksum uint16
	globalChecksum uint16
	version        uint8
	cartType       uint8
	mbcType        MBCType
	hasBattery     bool
	ramBankCount   uint8
}

// NewCartridge creates an empty cartridge, useful only for debugging
// purposes or as the MMU's default before a ROM is loaded.
func NewCartridge() *Cartridge {
	return &Cartridge{
		data:    make([]byte, 0x10000),
		mbcType: NoMBCType,
	}
}

// NewCartridgeWithData parses a ROM image's header and classifies its MBC.
func NewCartridgeWithData(data []byte) *Cartridge {
	titleBytes := data[titleAddress : titleAddress+titleLength]
	cartType := data[cartridgeTypeAddress]
	mbcType, hasBattery := classifyMBC(cartType)

	cart := &Cartridge{
		data:           make([]byte, len(data)),
		title:          romTitle(titleBytes),
		headerChecksum: bit.Combine(data[headerChecksumAddress], data[headerChecksumAddress+1]),
		globalChecksum: bit.Combine(data[globalChecksumAddress], data[globalChecksumAddress+1]),
		version:        data[versionNumberAddress],
		cartType:       cartType,
		mbcType:        mbcType,
		hasBattery:     hasBattery,
		ramBankCount:   ramBankCountFromHeader(data[ramSizeAddress]),
	}

	copy(cart.data, data)

	return cart
}

// classifyMBC maps the cartridge-type header byte (0x147) to the
// controller kinds this core implements. Anything requiring MBC2/3/5
// (RTC, rumble, built-in RAM) classifies as MBCUnknownType: NewWithCartridge
// refuses to run those.
func classifyMBC(cartType uint8) (MBCType, bool) {
	switch cartType {
	case 0x00, 0x08, 0x09:
		return NoMBCType, cartType == 0x09
	case 0x01, 0x02:
		return MBC1Type, false
	case 0x03:
		return MBC1Type, true
	default:
		return MBCUnknownType, false
	}
}

// ramBankCountFromHeader maps the RAM-size header byte (0x149) to a count
// of 8KB banks.
func ramBankCountFromHeader(ramSize uint8) uint8 {
	switch ramSize {
	case 0x02:
		return 1
	case 0x03:
		return 4
	case 0x04:
		return 16
	case 0x05:
		return 8
	default:
		return 0
	}
}

// LoadCartridge reads a ROM image from disk and parses its header.
// It rejects files too small to hold a complete header/bank pair and
// cartridge types that require a bank controller this core does not
// implement (MBC2/MBC3/MBC5 and beyond), and RAM-size codes above 0x05.
func LoadCartridge(path string) (*Cartridge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ROM %q: %w", path, err)
	}

	if len(data) < minROMSize {
		return nil, fmt.Errorf("ROM %q is %d bytes, smaller than the minimum %d", path, len(data), minROMSize)
	}

	cart := NewCartridgeWithData(data)
	if cart.mbcType == MBCUnknownType {
		return nil, fmt.Errorf("ROM %q declares cartridge type 0x%02X, which needs an unsupported bank controller", path, cart.cartType)
	}
	if ramSize := data[ramSizeAddress]; ramSize > 0x05 {
		return nil, fmt.Errorf("ROM %q declares RAM-size code 0x%02X, which is not a known size", path, ramSize)
	}

	return cart, nil
}

// ReadByte reads a byte at the specified address, ignoring any banking;
// callers needing MBC semantics go through MBC.Read instead.
func (c *Cartridge) ReadByte(addr uint16) uint8 {
	return c.data[addr]
}
