// Package driver orchestrates the backend's top-level pipeline: lowering, partitioning,
// concurrent per-shard emission and writing (spec.md §4.1, §5).
package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/golang/glog"

	"github.com/nirlang/nirllvm/src/codegen"
	"github.com/nirlang/nirllvm/src/nir"
	"github.com/nirlang/nirllvm/src/util"
)

// Lower is the external lowering collaborator (spec.md §1 "out of scope"): a pure
// transform over one name-group's defns, run once per top-level owner.
type Lower func(group []nir.Defn) ([]nir.Defn, error)

// Run executes the full pipeline: group defns by top-level owner and lower each group in
// parallel, link the results into a Program, partition into shards, emit and write each
// shard concurrently (spec.md §4.1 steps 1–4, §5 concurrency model).
func Run(defns []nir.Defn, opt util.Options, lower Lower) error {
	lowered, err := runLowering(defns, opt, lower)
	if err != nil {
		return err
	}

	prog := nir.NewProgram(lowered)

	cfg := codegen.Config{Mode: modeOf(opt.Mode), LTO: opt.LTO, Procs: procsOf(opt.Threads)}
	shards := codegen.Partition(lowered, cfg)
	glog.V(1).Infof("nirllvm: partitioned %d defns into %d shard(s)", len(lowered), len(shards))

	if err := os.MkdirAll(opt.WorkDir, 0o755); err != nil {
		return fmt.Errorf("nirllvm: creating work directory: %w", err)
	}

	return emitShards(prog, opt, shards)
}

func modeOf(mode string) codegen.Mode {
	if mode == "release" {
		return codegen.ModeRelease
	}
	return codegen.ModeDebug
}

func procsOf(threads int) int {
	if threads > 0 {
		return threads
	}
	return runtime.GOMAXPROCS(0)
}

// runLowering groups defns by top.ID and runs the external Lower transform over each
// group in parallel, collecting results and errors through a perror listener grounded
// on the teacher's util.perror pattern (spec.md §4.1 step 1, §5).
func runLowering(defns []nir.Defn, opt util.Options, lower Lower) ([]nir.Defn, error) {
	groups := make(map[string][]nir.Defn)
	var order []string
	for _, d := range defns {
		top := d.Name.TopID()
		if _, ok := groups[top]; !ok {
			order = append(order, top)
		}
		groups[top] = append(groups[top], d)
	}

	perr := util.NewPerror(len(order))
	results := make([][]nir.Defn, len(order))

	var wg sync.WaitGroup
	sem := make(chan struct{}, procsOf(opt.Threads))
	for i, top := range order {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, top string, group []nir.Defn) {
			defer wg.Done()
			defer func() { <-sem }()
			out, err := lower(group)
			if err != nil {
				perr.Append(fmt.Errorf("nirllvm: lowering group %q: %w", top, err))
				return
			}
			results[i] = out
		}(i, top, groups[top])
	}
	wg.Wait()
	perr.Stop()

	if perr.Len() > 0 {
		return nil, firstError(perr)
	}

	var out []nir.Defn
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// emitShards builds an Emitter per shard and writes its output concurrently; no shard
// task shares mutable state with another, and each writes a distinct filename, so no
// locking is required (spec.md §5 "shared resources").
func emitShards(prog *nir.Program, opt util.Options, shards []codegen.Shard) error {
	perr := util.NewPerror(len(shards))

	var wg sync.WaitGroup
	sem := make(chan struct{}, procsOf(opt.Threads))
	for _, shard := range shards {
		wg.Add(1)
		sem <- struct{}{}
		go func(shard codegen.Shard) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := emitAndWriteShard(prog, opt, shard); err != nil {
				perr.Append(err)
			}
		}(shard)
	}
	wg.Wait()
	perr.Stop()

	if perr.Len() > 0 {
		return firstError(perr)
	}
	return nil
}

func emitAndWriteShard(prog *nir.Program, opt util.Options, shard codegen.Shard) error {
	emitter := codegen.NewEmitter(prog, opt.Triple)
	text, err := emitter.Gen(shard.Defns)
	if err != nil {
		return fmt.Errorf("nirllvm: shard %s: %w", shard.ID, err)
	}

	path := filepath.Join(opt.WorkDir, shard.ID+".ll")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("nirllvm: writing %s: %w", path, err)
	}
	glog.V(1).Infof("nirllvm: wrote %s (%d defns)", path, len(shard.Defns))
	return nil
}

// firstError drains perr's error channel and returns the first one reported; the backend
// has no partial recovery, so a single representative failure is sufficient (spec.md §7).
func firstError(perr *util.Perror) error {
	for err := range perr.Errors() {
		return err
	}
	return fmt.Errorf("nirllvm: unknown failure")
}
