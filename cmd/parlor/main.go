// Parlor CLI - dispatches a token sequence against the configured modules.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/parlorlang/parlor/manifest"
	"github.com/parlorlang/parlor/transcript"
	"github.com/parlorlang/parlor/vm"
)

// builtins maps manifest activate names to shipped modules.
var builtins = map[string]func() (vm.Address, *vm.LoadedModule){
	"text":  func() (vm.Address, *vm.LoadedModule) { return vm.TextAddress, vm.NewTextModule() },
	"vec":   func() (vm.Address, *vm.LoadedModule) { return vm.VecAddress, vm.NewVecModule() },
	"clock": func() (vm.Address, *vm.LoadedModule) { return vm.ClockAddress, vm.NewClockModule() },
	"intro": func() (vm.Address, *vm.LoadedModule) { return vm.MustAddress("intro"), introModule() },
}

// introModule is a small rule-carrying module so the binary does
// something useful out of the box. Its greeting rule leans on the text
// builtin, so activate both: activate = ["text", "intro"].
func introModule() *vm.LoadedModule {
	m := vm.NewModule()
	m.Rules = []vm.Rule{
		{
			Pattern: []string{"my", "name", "is"},
			Action: vm.NewBlock(
				vm.Pop{},
				vm.Store{Name: "name"},
				vm.Eval{E: vm.Sys{
					Target: vm.TextAddress.Child("upper"),
					Args:   []vm.Lookup{vm.Var{Name: "name"}},
				}},
				vm.Eval{E: vm.Binary{
					Op: vm.OpAppend,
					A:  vm.Const{V: vm.FromStr("hello ")},
					B:  vm.Result{},
				}},
				vm.Return{L: vm.Result{}},
			),
		},
		{
			Pattern: []string{"hello"},
			Action: vm.NewBlock(
				vm.Return{L: vm.Const{V: vm.FromStr("hello yourself")}},
			),
		},
	}
	return vm.PlainModule(m)
}

func main() {
	dir := flag.String("C", ".", "Directory to search upward from for parlor.toml")
	quiet := flag.Bool("q", false, "Print only the dispatch result")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: parlor [options] token...\n\n")
		fmt.Fprintf(os.Stderr, "Dispatches the given tokens against the modules activated in parlor.toml.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  parlor my name is Dave\n")
		fmt.Fprintf(os.Stderr, "  parlor -C ./deploy greet everyone\n")
	}
	flag.Parse()

	tokens := flag.Args()
	if len(tokens) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*dir, *quiet, tokens); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(dir string, quiet bool, tokens []string) error {
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("no parlor.toml found at or above %s", dir)
	}
	m.ConfigureLogging()

	rt := vm.NewRuntime()
	rt.MaxCallDepth = m.Runtime.MaxCallDepth
	rt.TraceEval = m.Runtime.TraceEval

	var addrs []vm.Address
	for _, name := range m.Modules.Activate {
		mk, ok := builtins[name]
		if !ok {
			return fmt.Errorf("unknown module %q in manifest", name)
		}
		addr, lm := mk()
		if err := rt.Activate(addr, lm); err != nil {
			return fmt.Errorf("activating %s: %w", name, err)
		}
		addrs = append(addrs, addr)
	}
	if len(addrs) == 0 {
		return fmt.Errorf("manifest activates no modules")
	}

	if path := m.TranscriptPath(); path != "" {
		store, err := transcript.Open(path)
		if err != nil {
			return fmt.Errorf("opening transcript: %w", err)
		}
		defer store.Close()
		rt.Tracer = store
	}

	matched, err := rt.Dispatch(context.Background(), tokens, addrs...)
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Printf("matched %d rule(s) over %d module(s)\n", matched, len(addrs))
	}
	fmt.Println(rt.LastResult)
	return nil
}
