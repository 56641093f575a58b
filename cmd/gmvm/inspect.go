package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grove/gm"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

// disasmCommand prints every script resource back as reconstructed
// source, in name order — the disassembler's CLI surface.
func disasmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <project-file>",
		Short: "print every script resource as reconstructed source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			vm, err := loadEngine(args[0])
			if err != nil {
				return err
			}

			names := make([]string, 0, len(vm.Global.Scripts))
			for name := range vm.Global.Scripts {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				script := vm.Global.Scripts[name]
				if script == nil {
					fmt.Printf("// %s: failed to parse\n\n", name)
					continue
				}
				fmt.Printf("// %s\n%s\n", name, gm.Disassemble(script))
			}
			return nil
		},
	}
}

// inspectCommand is a readline-backed REPL over a loaded project's
// global namespace: each line is evaluated headlessly (no SDL window),
// first as an expression, then as statements. Useful for poking at
// resource constants, calling scripts, or stepping the simulation by
// hand with step().
func inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <project-file>",
		Short: "evaluate expressions against a loaded project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			vm, err := loadEngine(args[0])
			if err != nil {
				return err
			}

			rl, err := readline.New("gm> ")
			if err != nil {
				return fmt.Errorf("unable to start readline: %s", err)
			}
			defer rl.Close()

			g := vm.Global
			g.Host["step"] = func(ctx *gm.Context, args []gm.Value) (gm.Value, error) {
				vm.StepFrame()
				return gm.Undefined, nil
			}

			for {
				line, err := rl.Readline()
				if err != nil { // io.EOF or readline.ErrInterrupt
					return nil
				}
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if line == "quit" || line == "exit" {
					return nil
				}
				fmt.Println(evalLine(g, line))
			}
		},
	}
}

// evalLine parses a line first as a single expression (wrapped in a
// return) and, failing that, as a statement list, then executes it with
// the global namespace as receiver.
func evalLine(g *gm.Global, line string) string {
	script, err := gm.ParseScript("inspect", "return ("+line+");")
	if err != nil {
		if script, err = gm.ParseScript("inspect", line); err != nil {
			return err.Error()
		}
	}

	ctx := gm.NewContext(g, gm.GlobalID, g.Vars)
	v, err := gm.ExecScript(ctx, script)
	if err != nil {
		return err.Error()
	}
	return v.ToString()
}
