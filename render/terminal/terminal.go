// Package terminal implements an interactive dmgcore.FrameSink/KeySource
// backend that renders the video framebuffer directly to a terminal using
// half-block characters, and reads keyboard input into joypad events.
package terminal

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/tholvik/dmgcore/memory"
	"github.com/tholvik/dmgcore/video"
)

const (
	width  = video.FramebufferWidth
	height = video.FramebufferHeight

	minTermWidth  = width + 2
	minTermHeight = height/2 + 2
)

var shadeColors = []tcell.Color{
	tcell.ColorBlack,
	tcell.ColorGray,
	tcell.ColorSilver,
	tcell.ColorWhite,
}

// keyMapping maps tcell keys to joypad buttons for the fixed default layout.
var keyMapping = map[tcell.Key]memory.JoypadKey{
	tcell.KeyRight: memory.JoypadRight,
	tcell.KeyLeft:  memory.JoypadLeft,
	tcell.KeyUp:    memory.JoypadUp,
	tcell.KeyDown:  memory.JoypadDown,
	tcell.KeyEnter: memory.JoypadStart,
}

// runeMapping maps plain character keys to joypad buttons.
var runeMapping = map[rune]memory.JoypadKey{
	'z': memory.JoypadA,
	'x': memory.JoypadB,
	'a': memory.JoypadA,
	's': memory.JoypadB,
	'q': memory.JoypadSelect,
}

// Backend is an interactive dmgcore.FrameSink/KeySource pair backed by a
// tcell terminal screen. Quit() becomes true once the user presses
// Escape/Ctrl-C or the process receives a termination signal.
type Backend struct {
	screen tcell.Screen
	quit   bool

	pressed  []memory.JoypadKey
	released []memory.JoypadKey
}

// New initializes the terminal and returns a ready-to-use Backend.
func New() (*Backend, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("initializing terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("initializing terminal: %w", err)
	}

	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	screen.Clear()

	b := &Backend{screen: screen}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	go func() {
		<-signals
		b.quit = true
	}()

	return b, nil
}

// Close tears down the terminal, restoring the shell to its prior state.
func (b *Backend) Close() {
	b.screen.Fini()
}

// Quit reports whether the user or the OS has asked the emulator to stop.
func (b *Backend) Quit() bool {
	return b.quit
}

// PushFrame implements dmgcore.FrameSink, rendering the frame as
// half-block terminal cells (two vertical Game Boy pixels per cell).
func (b *Backend) PushFrame(frame *video.FrameBuffer) {
	b.pollEvents()

	termWidth, termHeight := b.screen.Size()
	if termWidth < minTermWidth || termHeight < minTermHeight {
		b.screen.Clear()
		msg := fmt.Sprintf("terminal too small, need at least %dx%d", minTermWidth, minTermHeight)
		style := tcell.StyleDefault.Foreground(tcell.ColorRed)
		for i, ch := range msg {
			b.screen.SetContent(i, termHeight/2, ch, nil, style)
		}
		b.screen.Show()
		return
	}

	pixels := frame.ToSlice()
	for y := 0; y < height; y += 2 {
		for x := 0; x < width; x++ {
			top := shadeOf(pixels[y*width+x])
			bottom := 3 // white, i.e. blank, past the last row
			if y+1 < height {
				bottom = shadeOf(pixels[(y+1)*width+x])
			}

			ch, fg, bg := halfBlockCell(top, bottom)
			style := tcell.StyleDefault.Foreground(fg).Background(bg)
			b.screen.SetContent(x, y/2, ch, nil, style)
		}
	}

	b.screen.Show()
}

func shadeOf(pixel uint32) int {
	switch video.GBColor(pixel) {
	case video.BlackColor:
		return 0
	case video.DarkGreyColor:
		return 1
	case video.LightGreyColor:
		return 2
	default:
		return 3
	}
}

// halfBlockCell picks the upper-half-block glyph and a foreground/background
// color pair that together render two stacked shades in one terminal cell.
func halfBlockCell(top, bottom int) (rune, tcell.Color, tcell.Color) {
	if top == bottom {
		return ' ', tcell.ColorDefault, shadeColors[top]
	}
	return '▀', shadeColors[top], shadeColors[bottom]
}

func (b *Backend) pollEvents() {
	for b.screen.HasPendingEvent() {
		switch ev := b.screen.PollEvent().(type) {
		case *tcell.EventKey:
			b.handleKey(ev)
		case *tcell.EventResize:
			b.screen.Sync()
		}
	}
}

func (b *Backend) handleKey(ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		b.quit = true
		return
	}

	if key, ok := keyMapping[ev.Key()]; ok {
		b.pressed = append(b.pressed, key)
		b.released = append(b.released, key)
		return
	}

	if ev.Key() == tcell.KeyRune {
		if key, ok := runeMapping[ev.Rune()]; ok {
			b.pressed = append(b.pressed, key)
			b.released = append(b.released, key)
		}
	}
}

// Pressed implements dmgcore.KeySource. Terminal input has no reliable
// key-release event in raw mode, so every key read this poll is reported
// as both pressed and released on the same call.
func (b *Backend) Pressed() []memory.JoypadKey {
	keys := b.pressed
	b.pressed = nil
	return keys
}

// Released implements dmgcore.KeySource.
func (b *Backend) Released() []memory.JoypadKey {
	keys := b.released
	b.released = nil
	return keys
}
