package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/tholvik/dmgcore"
	"github.com/tholvik/dmgcore/memory"
	"github.com/tholvik/dmgcore/render/headless"
	"github.com/tholvik/dmgcore/render/terminal"
)

func main() {
	app := cli.NewApp()
	app.Name = "dmgcore"
	app.Description = "An 8-bit handheld console emulator core"
	app.Usage = "dmgcore [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "headless",
			Usage: "run without an interactive terminal display",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "number of frames to run in headless mode",
			Value: 0,
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() == 0 {
		cli.ShowAppHelp(c)
		return errors.New("no ROM path provided")
	}
	romPath := c.Args().Get(0)

	cart, err := memory.LoadCartridge(romPath)
	if err != nil {
		return err
	}
	machine := dmgcore.NewWithCartridge(cart)

	if c.Bool("headless") {
		frames := c.Int("frames")
		if frames <= 0 {
			return errors.New("headless mode requires --frames with a positive value")
		}

		sink := headless.New()
		input := headless.NoInput{}
		for i := 0; i < frames; i++ {
			machine.ApplyInput(input)
			machine.RunFrame()
			sink.PushFrame(machine.CurrentFrame())
		}
		return nil
	}

	backend, err := terminal.New()
	if err != nil {
		return err
	}
	defer backend.Close()

	for !backend.Quit() {
		machine.ApplyInput(backend)
		machine.RunFrame()
		backend.PushFrame(machine.CurrentFrame())
	}

	return nil
}
