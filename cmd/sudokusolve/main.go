// Command sudokusolve reads a JSON constraint-tree fixture and runs
// one of the engine's search operations against it, printing the
// result: a context-bounded search call followed by elapsed-time
// reporting, wired to pkg/puzzle.Build and pkg/engine.Engine.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hexvalor/sudokucore/pkg/engine"
	"github.com/hexvalor/sudokucore/pkg/puzzle"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		path      = flag.String("file", "", "path to a JSON constraint-tree fixture")
		op        = flag.String("op", "solve", "operation: solve|count|all|nth|validate")
		skip      = flag.Int("skip", 0, "solutions to skip before returning one (solve)")
		limit     = flag.Int("limit", 0, "stop counting once this many solutions are found (count, 0 = unbounded)")
		support   = flag.Int("support", 0, "cap per-(cell,value) support bookkeeping (all, 0 = unbounded)")
		budget    = flag.Int("budget", 1000, "decision-step budget (nth)")
		timeout   = flag.Duration("timeout", 30*time.Second, "search timeout")
		parallel  = flag.Int("workers", 0, "worker count for parallel all (0 = runtime default)")
	)
	flag.Parse()

	if *path == "" {
		log.Fatal().Msg("missing -file")
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatal().Err(err).Str("file", *path).Msg("could not read fixture")
	}

	var f puzzle.File
	if err := json.Unmarshal(data, &f); err != nil {
		log.Fatal().Err(err).Msg("invalid fixture JSON")
	}

	shape, err := engine.NewGridShape(f.Shape.NumRows, f.Shape.NumCols, f.Shape.NumValues, f.Shape.BoxHeight, f.Shape.BoxWidth)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid grid shape")
	}

	constraints, err := puzzle.ParseConstraints(f.Constraints)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid constraint tree")
	}

	built, err := puzzle.Build(shape, constraints)
	if err != nil {
		log.Fatal().Err(err).Msg("build failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	stats := engine.NewSearchStats()
	start := time.Now()

	switch *op {
	case "solve":
		eng := engine.NewEngine(built.Shape, built.LT, built.Grid, built.Handlers, built.Excl, stats)
		sol, found, err := eng.FindSolution(ctx, *skip)
		report(stats, start, err)
		if !found {
			fmt.Println("no solution")
			return
		}
		s, err := puzzle.EncodeShortSolutionValues(sol)
		if err != nil {
			log.Fatal().Err(err).Msg("could not encode solution")
		}
		fmt.Println(s)

	case "count":
		eng := engine.NewEngine(built.Shape, built.LT, built.Grid, built.Handlers, built.Excl, stats)
		n, err := eng.CountSolutions(ctx, *limit)
		report(stats, start, err)
		fmt.Println(n)

	case "all":
		possibilities, err := puzzle.SolveAllPossibilitiesParallel(ctx, built, *parallel, *support)
		report(stats, start, err)
		s, err := puzzle.EncodeShortSolution(built.Shape, built.LT, possibilities)
		if err != nil {
			log.Fatal().Err(err).Msg("could not encode possibilities")
		}
		fmt.Println(s)

	case "nth":
		eng := engine.NewEngine(built.Shape, built.LT, built.Grid, built.Handlers, built.Excl, stats)
		res, err := eng.NthStep(ctx, *budget)
		report(stats, start, err)
		fmt.Println(res.Classification)

	case "validate":
		eng := engine.NewEngine(built.Shape, built.LT, built.Grid, built.Handlers, built.Excl, stats)
		ok, err := eng.IsSatisfiable(ctx)
		report(stats, start, err)
		fmt.Println(ok)

	default:
		log.Fatal().Str("op", *op).Msg("unknown operation")
	}
}

func report(stats *engine.SearchStats, start time.Time, err error) {
	stats.Elapsed()
	ev := log.Info()
	if err != nil {
		ev = log.Error().Err(err)
	}
	ev.Int("solutions", stats.Solutions).
		Int("guesses", stats.Guesses).
		Int("backtracks", stats.Backtracks).
		Int64("time_ms", stats.TimeMS).
		Dur("wall", time.Since(start)).
		Msg("search complete")
}
