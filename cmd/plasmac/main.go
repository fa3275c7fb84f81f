// Command plasmac is the Plasma core-compiler driver: it loads a
// fixture (§0.1), runs arity inference, type inference, tag
// assignment, const-data interning, and code generation in that
// order, consulting internal/buildcache before the last two, and
// writes the resulting PZ as textual bytecode (spec.md §6).
//
// Grounded on cmd/funxy/main.go's overall shape — read input, run the
// pipeline, report accumulated errors, pick an exit code — with the
// teacher's module loading, REPL, self-contained-binary, and bundling
// machinery stripped entirely: all of that belongs to the concrete
// front end and VM runtime spec.md places out of scope. What's kept
// is the hand-rolled os.Args scanning (no flag-parsing library, same
// as the teacher) and the panic-recover-with-friendly-message wrapper
// around main.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/plasma-lang/plasmac/internal/builtins"
	"github.com/plasma-lang/plasmac/internal/buildcache"
	"github.com/plasma-lang/plasmac/internal/constdata"
	"github.com/plasma-lang/plasmac/internal/coreir"
	"github.com/plasma-lang/plasmac/internal/diagnostics"
	"github.com/plasma-lang/plasmac/internal/fixture"
	"github.com/plasma-lang/plasmac/internal/ids"
	"github.com/plasma-lang/plasmac/internal/infer"
	"github.com/plasma-lang/plasmac/internal/pzcode"
	"github.com/plasma-lang/plasmac/internal/pzconfig"
	"github.com/plasma-lang/plasmac/internal/tags"
)

type cliArgs struct {
	fixturePath string
	outputPath  string
	configPath  string
	cachePath   string
	verbose     bool
}

func parseArgs(argv []string) (cliArgs, error) {
	var a cliArgs
	for i := 1; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "-v" || arg == "--verbose":
			a.verbose = true
		case arg == "-o":
			if i+1 >= len(argv) {
				return a, fmt.Errorf("-o requires an output path")
			}
			i++
			a.outputPath = argv[i]
		case arg == "-config":
			if i+1 >= len(argv) {
				return a, fmt.Errorf("-config requires a path")
			}
			i++
			a.configPath = argv[i]
		case arg == "-cache":
			if i+1 >= len(argv) {
				return a, fmt.Errorf("-cache requires a path")
			}
			i++
			a.cachePath = argv[i]
		case strings.HasPrefix(arg, "-"):
			return a, fmt.Errorf("unrecognized flag %q", arg)
		default:
			if a.fixturePath != "" {
				return a, fmt.Errorf("unexpected extra argument %q", arg)
			}
			a.fixturePath = arg
		}
	}
	if a.fixturePath == "" {
		return a, fmt.Errorf("usage: %s [-v] [-o out.pza] [-config plasmac.yaml] [-cache cache.db] <fixture.yaml>", argv[0])
	}
	return a, nil
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a compiler bug. Please report it.")
			os.Exit(2)
		}
	}()

	args, err := parseArgs(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	os.Exit(run(args))
}

func run(args cliArgs) int {
	start := time.Now()
	printer := diagnostics.NewPrinter(os.Stderr)

	cfg, err := pzconfig.Load(args.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if args.cachePath != "" {
		cfg.CachePath = args.cachePath
	}

	fixtureBytes, err := os.ReadFile(args.fixturePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	core := coreir.New()
	builtinTable := builtins.Install(core)
	if err := fixture.Load(args.fixturePath, core); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if err := core.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cord := &diagnostics.Cord{}

	arityRes := infer.InferArity(core)
	cord.Union(arityRes.Cord)
	if cord.HasInternalError() {
		printer.Print(cord)
		return 2
	}

	typeRes := infer.InferTypes(core, arityRes)
	cord.Union(typeRes.Cord)
	if cord.HasInternalError() {
		printer.Print(cord)
		return 2
	}

	tagTable, tagCord := tags.Assign(core, cfg)
	cord.Union(tagCord)
	if cord.HasInternalError() {
		printer.Print(cord)
		return 2
	}

	skip := map[ids.FuncID]bool{}
	for fid, failed := range arityRes.Failed {
		if failed {
			skip[fid] = true
		}
	}
	for fid, failed := range typeRes.Failed {
		if failed {
			skip[fid] = true
		}
	}

	var cache *buildcache.Cache
	var cacheKey buildcache.Key
	if cfg.CachePath != "" {
		cache, err = buildcache.Open(cfg.CachePath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		defer cache.Close()
		cacheKey = buildcache.NewKey(fixtureBytes, cfg.NumPtagBits)
	}

	var pz *pzcode.PZ
	var constTable *constdata.Table
	buildID := ""
	cacheHit := false

	if cache != nil {
		if art, ok, lookupErr := cache.Lookup(cacheKey); lookupErr == nil && ok {
			pz = art.PZ.ToPZ()
			buildID = art.BuildID
			cacheHit = true
		}
	}

	if !cacheHit && !cord.IsEmpty() {
		printer.Print(cord)
		return 1
	}

	if !cacheHit {
		var dataAlloc ids.Allocator[ids.DataID]
		var constCord *diagnostics.Cord
		constTable, constCord = constdata.Intern(core, &dataAlloc)
		cord.Union(constCord)
		if cord.HasInternalError() {
			printer.Print(cord)
			return 2
		}
		if !cord.IsEmpty() {
			printer.Print(cord)
			return 1
		}

		gen := pzcode.NewGenerator(core, tagTable, constTable, builtinTable)
		var genCord *diagnostics.Cord
		pz, genCord = gen.Generate(skip)
		cord.Union(genCord)
		if cord.HasInternalError() {
			printer.Print(cord)
			return 2
		}

		if cache != nil {
			buildID, err = cache.Store(cacheKey, constTable, pz)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 2
			}
		}
	}

	if !cord.IsEmpty() {
		printer.Print(cord)
		return 1
	}

	out := os.Stdout
	if args.outputPath != "" {
		f, err := os.Create(args.outputPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		defer f.Close()
		out = f
	}
	if err := pz.WriteText(out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if args.verbose {
		printSummary(pz, buildID, cacheHit, time.Since(start))
	}
	return 0
}

func printSummary(pz *pzcode.PZ, buildID string, cacheHit bool, elapsed time.Duration) {
	dataBytes := 0
	for _, d := range pz.Data {
		dataBytes += len(d)
	}
	status := "compiled"
	if cacheHit {
		status = "cache hit"
	}
	fmt.Fprintf(os.Stderr, "%s: %d procs, %s data, build %s, %s\n",
		status, len(pz.Procs), humanize.Bytes(uint64(dataBytes)), buildID, elapsed.Round(time.Microsecond))
}
