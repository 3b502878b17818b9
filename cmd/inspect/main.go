package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/assetlayout/graph"
	"github.com/wippyai/assetlayout/handle"
	"github.com/wippyai/assetlayout/rfl"
)

type options struct {
	file        string
	format      string
	mode        string
	out         string
	to          string
	bigEndian   bool
	verbose     bool
	interactive bool
}

func main() {
	var opts options
	flag.StringVar(&opts.file, "file", "", "Path to the asset file")
	flag.StringVar(&opts.format, "format", "", "Record layout of the root ("+strings.Join(rfl.Names(), ", ")+")")
	flag.BoolVar(&opts.bigEndian, "be", true, "Input is big-endian")
	flag.StringVar(&opts.to, "to", "", "Output byte order: be or le (default: same as input)")
	flag.StringVar(&opts.out, "out", "", "Write the re-encoded file here")
	flag.StringVar(&opts.mode, "mode", "wide", "Address mode: wide, linear or native")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	flag.BoolVar(&opts.interactive, "i", false, "Interactive mode with TUI")
	list := flag.Bool("list", false, "List record layouts and exit")
	flag.Parse()

	if *list {
		for _, name := range rfl.Names() {
			f, _ := rfl.Lookup(name)
			fmt.Printf("  %-12s %d bytes\n", name, f.Size())
		}
		return
	}

	if opts.file == "" || opts.format == "" {
		fmt.Fprintln(os.Stderr, "Usage: inspect -file <asset> -format <layout> [-be=false] [-to be|le] [-out path]")
		fmt.Fprintln(os.Stderr, "       inspect -list")
		fmt.Fprintln(os.Stderr, "       inspect -file <asset> -format <layout> -i  (interactive mode)")
		os.Exit(1)
	}

	if opts.interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: -i needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// report is everything one inspection produces.
type report struct {
	format  rfl.Format
	mode    string
	input   int
	live    int
	handles []handleInfo
	image   *graph.Image
}

type handleInfo struct {
	key  handle.Key
	size uintptr
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

func newGraph(mode string, size int, log *zap.Logger) (*graph.Graph, error) {
	switch mode {
	case "wide":
		return graph.NewWide(graph.WithLogger(log)), nil
	case "linear":
		return graph.NewLinear(make([]byte, 2*size+4096), graph.WithLogger(log)), nil
	case "native":
		return graph.New(graph.WithLogger(log)), nil
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

func targetOrder(to string, input bool) (bool, error) {
	switch to {
	case "":
		return input, nil
	case "be":
		return true, nil
	case "le":
		return false, nil
	default:
		return false, fmt.Errorf("unknown byte order %q", to)
	}
}

func inspect(opts options, log *zap.Logger) (*report, error) {
	data, err := os.ReadFile(opts.file)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	f, err := rfl.Lookup(opts.format)
	if err != nil {
		return nil, err
	}
	target, err := targetOrder(opts.to, opts.bigEndian)
	if err != nil {
		return nil, err
	}

	g, err := newGraph(opts.mode, len(data), log)
	if err != nil {
		return nil, err
	}
	defer g.Close()

	doc, err := f.Open(g, data, opts.bigEndian)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	rep := &report{format: f, mode: g.Mode().String(), input: len(data), live: g.Live()}
	if table := g.Table(); table != nil {
		table.Each(func(key handle.Key, _ unsafe.Pointer, size uintptr) bool {
			rep.handles = append(rep.handles, handleInfo{key: key, size: size})
			return true
		})
	}

	if rep.image, err = doc.Save(target); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	if err := doc.Close(); err != nil {
		return nil, fmt.Errorf("release: %w", err)
	}
	return rep, nil
}

func run(opts options) error {
	log, err := newLogger(opts.verbose)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	rep, err := inspect(opts, log)
	if err != nil {
		return err
	}

	fmt.Printf("File: %s\n", opts.file)
	fmt.Printf("Layout: %s (%d bytes)\n", rep.format.Name(), rep.format.Size())
	fmt.Printf("Mode: %s\n", rep.mode)
	fmt.Printf("Input: %d bytes\n", rep.input)
	fmt.Printf("Live offsets after load: %d\n", rep.live)

	if len(rep.handles) > 0 {
		fmt.Printf("\nHandles:\n")
		for _, h := range rep.handles {
			fmt.Printf("  #%-6d %d bytes\n", h.key, h.size)
		}
	}

	fmt.Printf("\nOutput: %d bytes, %s\n", len(rep.image.Data), orderName(rep.image.BigEndian))
	fmt.Printf("Offset fields:\n")
	for _, pos := range rep.image.Offsets.Positions() {
		fmt.Printf("  0x%06x\n", pos)
	}

	if opts.out != "" {
		if err := os.WriteFile(opts.out, rep.image.Data, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Printf("\nWrote %s\n", opts.out)
	}
	return nil
}

func orderName(bigEndian bool) string {
	if bigEndian {
		return "big-endian"
	}
	return "little-endian"
}
