package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/grove/gm"
	"github.com/grove/gm/cmd/internal/gui"
	"github.com/grove/gm/cmd/internal/meter"

	"github.com/veandco/go-sdl2/sdl"
)

var errQuit = errors.New("quit requested")

// driver is the thin SDL2 frame loop the runtime leaves external (§1,
// §6): it feeds keyboard state in, drains the frame clock with measured
// wall time, and presents whatever the room drew. Structurally grounded
// on cmd/vnes/engine.go's poll/update/render/paint split, trimmed from
// three synchronized NES debug windows down to one.
type driver struct {
	vm *gm.Engine

	view    *gui.View
	canvas  *sdlCanvas
	input   *sdlInput
	overlay gui.Overlay

	status *gui.Status
	grid   *gui.Grid

	paused   bool
	showPerf bool

	fpsMeter    *meter.Meter
	updateMeter *meter.Meter
	renderMeter *meter.Meter
}

func newDriver(vm *gm.Engine, scale int, fontMap gui.FontMap) (*driver, error) {
	def := vm.Global.Room.Def

	view, err := gui.NewView("gmvm", int(def.Width), int(def.Height), scale, fontMap)
	if err != nil {
		return nil, fmt.Errorf("newDriver: unable to create view: %s", err)
	}

	var font *gui.Font
	for _, f := range fontMap {
		font = f
		break
	}

	status := &gui.Status{
		Message: &gui.Message{
			Font:    font,
			Size:    16,
			At:      gui.Bottom | gui.Left,
			Padding: gui.Padding{Top: 4, Right: 6, Bottom: 4, Left: 6},
			Fg:      color.RGBA{R: 255, G: 255, B: 255, A: 255},
			Bg:      color.RGBA{A: 160},
		},
	}

	cellW, cellH := def.SnapX, def.SnapY
	if cellW <= 0 {
		cellW = 32
	}
	if cellH <= 0 {
		cellH = 32
	}
	grid := &gui.Grid{
		Disabled: true,
		CellW:    cellW,
		CellH:    cellH,
		Color:    color.RGBA{R: 255, G: 255, B: 255, A: 60},
		Bounds:   sdl.Rect{X: 0, Y: 0, W: def.Width, H: def.Height},
	}

	canvas := newSDLCanvas(view.SDLRenderer(), nil)
	vm.AttachCanvas(canvas)

	input := newSDLInput()
	vm.AttachInput(input)

	return &driver{
		vm:          vm,
		view:        view,
		canvas:      canvas,
		input:       input,
		status:      status,
		grid:        grid,
		overlay:     gui.Overlay{status, grid},
		fpsMeter:    meter.New(30),
		updateMeter: meter.New(30),
		renderMeter: meter.New(30),
	}, nil
}

// run paces the frame loop: each pass polls input, feeds the measured
// frame time to the engine's sub-tick clock (§4.G), and presents, until
// the context is canceled, the window closes, or the script calls
// game_end().
func (d *driver) run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !d.view.Visible() {
				return errQuit
			}
			if d.vm.Ended() {
				return nil
			}

			now := time.Now()
			dt := now.Sub(last).Seconds()
			last = now

			if err := d.poll(); err != nil {
				return err
			}

			d.update(dt)

			if err := d.render(); err != nil {
				return err
			}

			d.view.Paint()
			d.fpsMeter.Record(time.Duration(dt * float64(time.Second)))
		}
	}
}

func (d *driver) poll() error {
	for evt := sdl.PollEvent(); evt != nil; evt = sdl.PollEvent() {
		if _, ok := evt.(*sdl.QuitEvent); ok {
			return errQuit
		}

		if err := d.handle(evt); err != nil {
			return fmt.Errorf("driver: poll: %s", err)
		}
	}
	d.input.snapshot()
	return nil
}

func (d *driver) handle(evt sdl.Event) error {
	if _, err := d.view.Handle(evt); err != nil {
		return err
	}

	if key, ok := evt.(*sdl.KeyboardEvent); ok {
		switch {
		case gui.IsKeyPress(key, sdl.K_PAUSE):
			d.pauseUnpause()
		case gui.IsKeyPress(key, sdl.K_F2):
			d.togglePerf()
		case gui.IsKeyPress(key, sdl.K_F3):
			d.grid.Toggle()
		}
	}

	return nil
}

func (d *driver) pauseUnpause() {
	d.paused = !d.paused
	if d.paused {
		d.status.SetStatusMsg("paused")
	} else {
		d.status.SetStatusMsg("")
		d.status.SetFlashMsg("unpaused", 2*time.Second)
	}
}

func (d *driver) togglePerf() {
	d.showPerf = !d.showPerf
	if !d.showPerf {
		d.status.SetStatusMsg("")
	}
}

func (d *driver) update(dt float64) {
	start := time.Now()
	if !d.paused {
		d.vm.PumpInput()
		d.vm.Advance(dt)
	}
	if d.showPerf && !d.paused {
		d.status.SetStatusMsg(fmt.Sprintf("%d fps · step %.1fms · draw %.1fms",
			d.fpsMeter.PerSecond(), d.updateMeter.Ms(), d.renderMeter.Ms()))
	}
	d.overlay.Update(d.view)
	d.updateMeter.Record(time.Since(start))
}

func (d *driver) render() error {
	start := time.Now()
	d.canvas.Clear(0)
	d.vm.DrawFrame()
	if err := d.overlay.Draw(d.view); err != nil {
		return fmt.Errorf("driver: render: %s", err)
	}
	d.renderMeter.Record(time.Since(start))
	return nil
}
