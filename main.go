package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matthew-pisano/masm-sub000/assembler"
	"github.com/matthew-pisano/masm-sub000/config"
	"github.com/matthew-pisano/masm-sub000/debugger"
	"github.com/matthew-pisano/masm-sub000/loader"
	"github.com/matthew-pisano/masm-sub000/vm"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"     // Version number (set by git tag at build time)
	Commit  = "unknown" // Git commit hash
	Date    = "unknown" // Build date
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		debugMode   = flag.Bool("debug", false, "Start in debugger mode")
		tuiMode     = flag.Bool("tui", false, "Use TUI (Text User Interface) debugger")
		verboseMode = flag.Bool("verbose", false, "Verbose output")
		configPath  = flag.String("config", "", "Path to a TOML configuration file (default: platform config path)")
		dumpSymbols = flag.Bool("dump-symbols", false, "Dump symbol table and exit")
		symbolsFile = flag.String("symbols-file", "", "Symbol dump output file (default: stdout)")
	)

	var mmio, mmioLong bool
	flag.BoolVar(&mmio, "m", false, "Select MMIO mode (default: syscall)")
	flag.BoolVar(&mmioLong, "mmio", false, "Select MMIO mode (default: syscall)")

	var littleEndian, littleEndianLong bool
	flag.BoolVar(&littleEndian, "l", false, "Select little-endian byte order (default: big-endian)")
	flag.BoolVar(&littleEndianLong, "little-endian", false, "Select little-endian byte order (default: big-endian)")

	var assembleOnly, assembleOnlyLong bool
	flag.BoolVar(&assembleOnly, "s", false, "Stop after assembly (no run)")
	flag.BoolVar(&assembleOnlyLong, "assemble", false, "Stop after assembly (no run)")

	saveTemps := flag.Bool("save-temps", false, "Emit .i (listing) and .o (object container) next to the first input")

	flag.Usage = printHelp
	flag.Parse()

	if *showVersion {
		fmt.Printf("masm %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		printHelp()
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	useMMIO := mmio || mmioLong || cfg.Execution.MMIOMode
	useLittleEndian := littleEndian || littleEndianLong || cfg.Execution.LittleEndian
	stopAfterAssemble := assembleOnly || assembleOnlyLong

	inputs := flag.Args()

	layout, symbols, err := assembleOrLoadInputs(inputs, useLittleEndian, *verboseMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *dumpSymbols {
		if err := dumpSymbolTable(symbols, *symbolsFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error dumping symbols: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if *saveTemps {
		if err := writeSaveTemps(inputs[0], layout); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing save-temps output: %v\n", err)
			os.Exit(1)
		}
	}

	if stopAfterAssemble {
		os.Exit(0)
	}

	ioMode := vm.SyscallMode
	if useMMIO {
		ioMode = vm.MMIOMode
	}

	machine := vm.NewState(useLittleEndian, ioMode)
	machine.Load(layout)
	machine.Init()
	machine.SetStreams(os.Stdin, os.Stdout)

	sourceMap := buildSourceMap(layout)

	if *debugMode || *tuiMode {
		dbg := debugger.NewDebugger(machine, layout, useLittleEndian)
		dbg.LoadSymbols(symbols)
		dbg.LoadSourceMap(sourceMap)
		dbg.VM.SetStreams(os.Stdin, os.Stdout)
		// dbg.In/dbg.Out are left nil here even in -m mode: stdin is
		// already claimed line-by-line for debugger commands, so it
		// cannot also be put in raw single-keystroke MMIO mode.

		if *tuiMode {
			if err := debugger.RunTUI(dbg); err != nil {
				fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
				os.Exit(1)
			}
		} else {
			fmt.Println("MASM Debugger - Type 'help' for commands")
			fmt.Printf("Program loaded: %s\n", inputs[0])
			fmt.Println()

			if err := debugger.RunCLI(dbg); err != nil {
				fmt.Fprintf(os.Stderr, "Debugger error: %v\n", err)
				os.Exit(1)
			}
		}
		return
	}

	if *verboseMode {
		fmt.Println("Starting execution...")
		fmt.Println("----------------------------------------")
	}

	var in vm.InputSource
	var out vm.OutputSink
	restoreStdin := func() {}
	if useMMIO {
		restore, err := enableRawStdin()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to set up MMIO input: %v\n", err)
			os.Exit(1)
		}
		restoreStdin = restore
		in = newMMIOInput(os.Stdin)
		out = &mmioOutput{w: os.Stdout}
	}

	code, runErr := machine.InterpretLimited(in, out, cfg.Execution.MaxCycles)
	// os.Exit below skips deferred calls, so stdin must be restored by hand
	// on every exit path rather than via defer.
	restoreStdin()
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "%v\n", runErr)
		os.Exit(1)
	}

	if *verboseMode {
		fmt.Println("----------------------------------------")
		fmt.Printf("Exit code: %d\n", code)
	}

	os.Exit(code)
}

// loadConfig reads a TOML config file (or the platform default when path is
// empty), falling back to config.DefaultConfig values for anything absent.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// assembleOrLoadInputs builds a MemLayout and symbol table from the given
// input paths: a single .o path is loaded as an object container directly
// (no symbols survive the round trip), otherwise every path is treated as
// MIPS assembly source and assembled together.
func assembleOrLoadInputs(inputs []string, littleEndian, verbose bool) (*vm.MemLayout, map[string]uint32, error) {
	if len(inputs) == 1 && strings.EqualFold(filepath.Ext(inputs[0]), ".o") {
		data, err := os.ReadFile(inputs[0]) // #nosec G304 -- user-specified input path
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read object file: %w", err)
		}
		layout, err := loader.Load(data)
		if err != nil {
			return nil, nil, err
		}
		return layout, make(map[string]uint32), nil
	}

	files := make(map[string]string, len(inputs))
	for _, path := range inputs {
		text, err := os.ReadFile(path) // #nosec G304 -- user-specified input path
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		files[path] = string(text)
	}

	if verbose {
		fmt.Printf("Assembling %d file(s): %s\n", len(inputs), strings.Join(inputs, ", "))
	}

	layout, labels, err := assembler.Assemble(files, inputs, assembler.Options{LittleEndian: littleEndian})
	if err != nil {
		return nil, nil, err
	}

	if verbose {
		fmt.Printf("Assembled %d symbol(s)\n", len(labels.Addresses))
	}

	return layout, labels.Addresses, nil
}

// buildSourceMap derives a debugger source map (address -> source line) from
// a MemLayout's debug info, reconstructing a readable line from the label
// and instruction/data text recorded at each address.
func buildSourceMap(layout *vm.MemLayout) map[uint32]string {
	sourceMap := make(map[uint32]string, len(layout.DebugInfo))
	for addr, info := range layout.DebugInfo {
		line := info.Text
		if info.Label != "" {
			if line != "" {
				line = info.Label + ": " + line
			} else {
				line = info.Label + ":"
			}
		}
		if line != "" {
			sourceMap[addr] = line
		}
	}
	return sourceMap
}

// writeSaveTemps writes the `.i` listing and `.o` object container next to
// firstInput, per spec.md 6's --save-temps behavior.
func writeSaveTemps(firstInput string, layout *vm.MemLayout) error {
	base := strings.TrimSuffix(firstInput, filepath.Ext(firstInput))

	listing := loader.Listing(layout)
	if err := os.WriteFile(base+".i", []byte(listing), 0600); err != nil {
		return fmt.Errorf("failed to write listing: %w", err)
	}

	container := loader.Save(layout)
	if err := os.WriteFile(base+".o", container, 0600); err != nil {
		return fmt.Errorf("failed to write object container: %w", err)
	}

	return nil
}

// dumpSymbolTable outputs the symbol table in a readable format.
func dumpSymbolTable(symbols map[string]uint32, filename string) error {
	var writer *os.File
	var err error

	if filename == "" {
		writer = os.Stdout
	} else {
		writer, err = os.Create(filename) // #nosec G304 -- user-specified symbol output path
		if err != nil {
			return fmt.Errorf("failed to create symbol file: %w", err)
		}
		defer func() {
			if cerr := writer.Close(); cerr != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close symbol file: %v\n", cerr)
			}
		}()
	}

	if len(symbols) == 0 {
		_, _ = fmt.Fprintln(writer, "No symbols defined")
		return nil
	}

	_, _ = fmt.Fprintln(writer, "Symbol Table")
	_, _ = fmt.Fprintln(writer, "============")
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintf(writer, "%-30s %s\n", "Name", "Address")
	_, _ = fmt.Fprintln(writer, strings.Repeat("-", 50))

	names := make([]string, 0, len(symbols))
	for name := range symbols {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return symbols[names[i]] < symbols[names[j]] })

	for _, name := range names {
		_, _ = fmt.Fprintf(writer, "%-30s 0x%08X\n", name, symbols[name])
	}

	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintf(writer, "Total symbols: %d\n", len(symbols))

	return nil
}

func printHelp() {
	fmt.Printf(`masm %s - a MIPS32 assembler and interpreter

Usage: masm [options] <source-or-object-file> [additional-source-files...]

Options:
  -help              Show this help message
  -version           Show version information
  -debug             Start in debugger mode (CLI)
  -tui               Start in TUI debugger mode
  -verbose           Enable verbose output
  -config FILE       Load configuration from FILE (default: platform config path)

Execution mode:
  -m, -mmio          Select MMIO mode (default: syscall mode)
  -l, -little-endian Select little-endian byte order (default: big-endian)

Assembly output:
  -s, -assemble      Stop after assembly, do not run
  -save-temps        Emit .i (listing) and .o (object container) next to the first input

Symbol options:
  -dump-symbols      Dump symbol table and exit
  -symbols-file FILE Symbol dump output file (default: stdout)

Examples:
  # Run a program directly
  masm examples/hello.s

  # Assemble and run several files together
  masm start.s lib.s

  # Run with the interactive debugger
  masm -debug examples/fibonacci.s

  # Run with the TUI debugger
  masm -tui examples/bubble_sort.s

  # Assemble only, emitting .i/.o next to the source
  masm -assemble -save-temps program.s

  # Run a previously assembled object container
  masm program.o

  # Dump the symbol table
  masm -dump-symbols program.s

Debugger commands (when in -debug mode):
  run, r             Start/restart program execution
  continue, c        Continue execution
  step, s            Execute single instruction
  next, n            Step over function calls
  break ADDR         Set breakpoint at address/label
  info registers     Show all registers
  print EXPR         Evaluate and print expression
  help               Show debugger help

Exit status: 0 on successful program exit, the program's own exit code on a
controlled exit, 1 on an assembly or runtime error (diagnostic on stderr).
`, Version)
}
