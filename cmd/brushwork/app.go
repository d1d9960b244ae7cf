package main

import (
	"fmt"
	"log"
	"os"

	"github.com/chazu/brushwork/pkg/engine"
	"github.com/chazu/brushwork/pkg/kernel"
	"github.com/chazu/brushwork/pkg/kernel/sdfx"
	"github.com/chazu/brushwork/pkg/quakemap"
	"github.com/chazu/brushwork/pkg/tessellate"
	"github.com/deadsy/sdfx/render"
)

// config is the parsed command line.
type config struct {
	Input     string
	Output    string
	Script    string // optional Lisp script run against the loaded map
	Validate  bool
	STL       string // optional STL export path
	HullCells int    // > 0 exports merged marching-cubes hulls instead of exact faces
}

// Report summarizes one run.
type Report struct {
	Entities    int
	Brushes     int
	ParseErrors []quakemap.ParseError
	Validation  quakemap.ValidationResult
	Triangles   int // triangles written to the STL file
}

// App runs the load, script, validate, export and save pipeline.
type App struct {
	logger *log.Logger
	engine *engine.Engine
}

// NewApp creates a new App that reports through logger.
func NewApp(logger *log.Logger) *App {
	return &App{
		logger: logger,
		engine: engine.NewEngine(),
	}
}

// Run executes the pipeline described by cfg. Validation errors abort
// before anything is written.
func (a *App) Run(cfg config) (*Report, error) {
	// Step 1: Parse the input and reconstruct every brush.
	res, err := quakemap.NewParser(quakemap.WithLogger(a.logger)).ParseFile(cfg.Input)
	if err != nil {
		return nil, err
	}
	m := res.Map
	rep := &Report{ParseErrors: res.Errors}

	// Step 2: Run the script against the map, keeping its edited copy.
	if cfg.Script != "" {
		m, err = a.runScript(cfg.Script, m)
		if err != nil {
			return nil, err
		}
	}
	rep.Entities = m.Len()
	rep.Brushes = m.BrushCount()

	// Step 3: Validate.
	if cfg.Validate {
		rep.Validation = quakemap.Validate(m)
		for _, w := range rep.Validation.Warnings {
			a.logger.Print(w.Error())
		}
		if !rep.Validation.OK() {
			for _, e := range rep.Validation.Errors {
				a.logger.Print(e.Error())
			}
			return rep, fmt.Errorf("validation failed with %d errors", len(rep.Validation.Errors))
		}
	}

	// Step 4: Export triangles.
	if cfg.STL != "" {
		n, err := a.exportSTL(m, cfg.STL, cfg.HullCells)
		if err != nil {
			return rep, err
		}
		rep.Triangles = n
	}

	// Step 5: Write the map back out.
	if err := quakemap.Save(m, cfg.Output); err != nil {
		return rep, err
	}
	return rep, nil
}

// runScript evaluates the script at path against m.
func (a *App) runScript(path string, m *quakemap.Map) (*quakemap.Map, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	out, evalErrs, err := a.engine.Evaluate(string(src), m)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			a.logger.Printf("%s: %v", path, e)
		}
		return nil, fmt.Errorf("script %s: %w", path, evalErrs[0])
	}
	return out, nil
}

// exportSTL writes every brush of m to path. With hullCells > 0 the
// brushes of each entity are merged into one marching-cubes hull;
// otherwise the exact face polygons are triangulated.
func (a *App) exportSTL(m *quakemap.Map, path string, hullCells int) (int, error) {
	var meshes []*kernel.Mesh
	if hullCells > 0 {
		k := sdfx.New(hullCells)
		for en, e := range m.Entities() {
			if len(e.Solids()) == 0 {
				continue
			}
			mesh, err := k.EntityMesh(e)
			if err != nil {
				return 0, fmt.Errorf("stl: entity %d: %w", en, err)
			}
			meshes = append(meshes, mesh)
		}
	} else {
		var err error
		meshes, err = tessellate.Tessellate(m, tessellate.Fan{})
		if err != nil {
			return 0, fmt.Errorf("stl: %w", err)
		}
	}

	merged := tessellate.Merge(path, meshes)
	if err := render.SaveSTL(path, merged.Triangles()); err != nil {
		return 0, fmt.Errorf("stl: %w", err)
	}
	return merged.TriangleCount(), nil
}
