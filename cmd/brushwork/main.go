// Command brushwork reads a map file, rebuilds the face polygons of every
// brush from its bounding planes and writes the map back out.
//
// Usage:
//
//	brushwork [-o out.map] [-script edit.lisp] [-validate] [-stl out.stl [-hull N]] in.map
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("brushwork: ")

	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	rep, err := NewApp(log.Default()).Run(cfg)
	if rep != nil {
		fmt.Printf("Read %d entities with %d brushes\n", rep.Entities, rep.Brushes)
	}
	if err != nil {
		log.Fatal(err)
	}
	if rep.Triangles > 0 {
		fmt.Printf("Wrote %d triangles to %s\n", rep.Triangles, cfg.STL)
	}
	fmt.Printf("Wrote %s\n", cfg.Output)
}

// parseFlags reads the command line. The output defaults to test.map in
// the home directory.
func parseFlags(args []string) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("brushwork", flag.ContinueOnError)
	fs.StringVar(&cfg.Output, "o", "", "output map file (default $HOME/test.map)")
	fs.StringVar(&cfg.Script, "script", "", "Lisp script to run against the map before saving")
	fs.BoolVar(&cfg.Validate, "validate", false, "check the map and refuse to save on errors")
	fs.StringVar(&cfg.STL, "stl", "", "also write the brushes as an STL mesh")
	fs.IntVar(&cfg.HullCells, "hull", 0, "with -stl, merge each entity into a marching-cubes hull of N cells")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: brushwork [flags] in.map\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return cfg, fmt.Errorf("expected exactly one input file, got %d", fs.NArg())
	}
	cfg.Input = fs.Arg(0)

	if cfg.Output == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, fmt.Errorf("resolve default output: %w", err)
		}
		cfg.Output = filepath.Join(home, "test.map")
	}
	return cfg, nil
}
