package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"syscall"

	"github.com/grove/gm"
	"github.com/grove/gm/cmd/internal/gui"

	"github.com/spf13/cobra"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/veandco/go-sdl2/ttf"
)

func init() {
	runtime.LockOSThread()
}

var (
	flagFont       string
	flagBMFont     string
	flagScale      int
	flagTrace      bool
	flagCPUProfile string
	flagMemProfile string
)

func main() {
	root := &cobra.Command{
		Use:   "gmvm <project-file>",
		Short: "load a game project archive and run it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(args[0])
		},
	}
	root.Flags().StringVar(&flagFont, "font", "", "path to a TrueType font used to render draw_text_ext output")
	root.Flags().StringVar(&flagBMFont, "bmfont", "", "path to an AngelCode BMFont .fnt atlas used for the HUD status line")
	root.Flags().IntVar(&flagScale, "scale", 2, "window scale factor")
	root.PersistentFlags().BoolVar(&flagTrace, "trace", false, "log script execution errors to stderr")
	root.Flags().StringVar(&flagCPUProfile, "cpuprofile", "", "write cpu profile to file")
	root.Flags().StringVar(&flagMemProfile, "memprofile", "", "write memory profile to file")

	root.AddCommand(disasmCommand(), inspectCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

// loadEngine reads and decodes a project archive, the shared front half of
// every subcommand.
func loadEngine(path string) (*gm.Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open project: %s", err)
	}

	var debugOut io.Writer
	if flagTrace {
		debugOut = os.Stderr
	}

	vm, err := gm.NewEngine(data, debugOut)
	if err != nil {
		return nil, fmt.Errorf("unable to load project: %s", err)
	}
	return vm, nil
}

func initSDL() (func(), error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return func() {}, fmt.Errorf("initSDL: unable to init sdl: %s", err)
	}
	return sdl.Quit, nil
}

func initTTF(path string) (*ttf.Font, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}

	if err := ttf.Init(); err != nil {
		return nil, func() {}, fmt.Errorf("initTTF: unable to init ttf: %s", err)
	}

	font, err := ttf.OpenFont(path, 16)
	if err != nil {
		ttf.Quit()
		return nil, func() {}, fmt.Errorf("initTTF: unable to open %s: %s", path, err)
	}

	return font, func() { font.Close(); ttf.Quit() }, nil
}

// loadBMFont loads an AngelCode BMFont XML atlas (used for the HUD
// status line) with its page images resolved relative to the .fnt
// file's own directory.
func loadBMFont(path string) (gui.FontMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dir := filepath.Dir(path)
	fontMap := make(gui.FontMap)
	err = fontMap.LoadXML(f, func(page string) (io.ReadCloser, error) {
		return os.Open(filepath.Join(dir, page))
	})
	if err != nil {
		return nil, err
	}

	return fontMap, nil
}

func run(projectPath string) error {
	vm, err := loadEngine(projectPath)
	if err != nil {
		return err
	}

	quitSDL, err := initSDL()
	if err != nil {
		return err
	}
	defer quitSDL()

	font, quitTTF, err := initTTF(flagFont)
	if err != nil {
		return err
	}
	defer quitTTF()

	fontMap := gui.FontMap{}
	if flagBMFont != "" {
		fontMap, err = loadBMFont(flagBMFont)
		if err != nil {
			return fmt.Errorf("unable to load hud font: %s", err)
		}
	}

	d, err := newDriver(vm, flagScale, fontMap)
	if err != nil {
		return err
	}
	defer d.view.Destroy()

	d.canvas.font = font

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigchan
		cancel()
	}()

	if flagCPUProfile != "" {
		cpuf, err := os.Create(flagCPUProfile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %s", err)
		}
		defer cpuf.Close()
		if err := pprof.StartCPUProfile(cpuf); err != nil {
			return fmt.Errorf("could not start CPU profile: %s", err)
		}
		defer pprof.StopCPUProfile()
	}
	if flagMemProfile != "" {
		memf, err := os.Create(flagMemProfile)
		if err != nil {
			return fmt.Errorf("could not create memory profile: %s", err)
		}
		defer memf.Close()
		defer func() {
			runtime.GC()
			if err := pprof.WriteHeapProfile(memf); err != nil {
				panic("could not write memory profile: " + err.Error())
			}
		}()
	}

	err = d.run(ctx)
	if err == errQuit || err == context.Canceled {
		return nil
	}
	return err
}
