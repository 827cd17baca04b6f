// Command dynadump is a small inspection tool over binout, d3plot, and
// key files: it opens one family and dumps its directory tree or control
// data, exercising the three library packages from the command line.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/elliotnunn/dynareadout/binout"
	"github.com/elliotnunn/dynareadout/d3plot"
	"github.com/elliotnunn/dynareadout/internal/dconfig"
	"github.com/elliotnunn/dynareadout/keyfile"
)

func main() {
	kind := flag.String("type", "", "file type to open: binout, d3plot, or key")
	path := flag.String("path", "", "path or glob pattern for the family/file")
	flag.Parse()

	if *kind == "" || *path == "" {
		fmt.Fprintln(os.Stderr, "usage: dynadump -type {binout|d3plot|key} -path <path>")
		os.Exit(2)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var err error
	switch *kind {
	case "binout":
		err = dumpBinout(*path, log)
	case "d3plot":
		err = dumpD3plot(*path, log)
	case "key":
		err = dumpKeyfile(*path, log)
	default:
		err = fmt.Errorf("unknown -type %q", *kind)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "dynadump:", err)
		os.Exit(1)
	}
}

func dumpBinout(pattern string, log *slog.Logger) error {
	f, err := binout.Open(pattern, dconfig.WithLogger(log))
	if err != nil {
		return err
	}
	defer f.Close()

	var walk func(path string, depth int)
	walk = func(path string, depth int) {
		names, err := f.ChildNames(path)
		if err != nil {
			return
		}
		for _, n := range names {
			fmt.Printf("%*s%s\n", depth*2, "", n)
			walk(path+"/"+n, depth+1)
		}
	}
	fmt.Println("/")
	walk("", 1)

	for path, err := range f.SkippedFiles() {
		fmt.Printf("skipped %s: %v\n", path, err)
	}
	return nil
}

func dumpD3plot(root string, log *slog.Logger) error {
	f, err := d3plot.Open(root, dconfig.WithLogger(log))
	if err != nil {
		return err
	}
	defer f.Close()

	cd := f.ControlData()
	fmt.Printf("title:      %s\n", f.Title())
	fmt.Printf("numnp:      %d\n", cd.NUMNP)
	fmt.Printf("nel8/2/4/t: %d / %d / %d / %d\n", cd.NEL8, cd.NEL2, cd.NEL4, cd.NELT)
	fmt.Printf("num states: %d\n", f.NumStates())
	return nil
}

func dumpKeyfile(path string, log *slog.Logger) error {
	cfg := dconfig.DefaultParseConfig()
	deck, err := keyfile.Parse(path, cfg, dconfig.WithLogger(log))
	if err != nil {
		return err
	}
	for _, name := range deck.Names() {
		fmt.Printf("%s: %d occurrence(s)\n", name, len(deck.GetSlice(name)))
	}
	for _, w := range deck.Warnings {
		fmt.Println("warning:", w)
	}
	return nil
}
