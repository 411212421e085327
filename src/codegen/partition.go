package codegen

import (
	"hash/fnv"
	"sort"
	"strconv"

	"github.com/nirlang/nirllvm/src/nir"
)

// Mode names the build mode of the external toolchain invocation (spec.md §6).
type Mode uint8

const (
	ModeDebug Mode = iota
	ModeRelease
)

// Config is the partitioner's input: build mode, the external LTO setting (empty string
// or "none" means no LTO), and the shard count to target when sharding is in effect.
type Config struct {
	Mode  Mode
	LTO   string
	Procs int
}

// shards reports whether this configuration splits the defn set across multiple files,
// per the effect table of spec.md §6: Debug always shards; Release shards only when an
// external LTO toolchain is configured, otherwise the whole program collapses to one
// out.ll (an ad-hoc form of LTO achieved by keeping everything in one LLVM module).
func (c Config) shards() bool {
	return c.Mode == ModeDebug || (c.LTO != "" && c.LTO != "none")
}

// Shard is one partition of the program: its output file stem and its defns, already
// sorted into the fixed intra-shard order required for deterministic output.
type Shard struct {
	ID    string
	Defns []nir.Defn
}

// Partition groups defns into shards by hashing each defn's top-level owner name into
// Config.Procs buckets (Debug, or Release with LTO), or a single "out" shard otherwise
// (spec.md §4.1 steps 2–3).
func Partition(defns []nir.Defn, cfg Config) []Shard {
	if !cfg.shards() {
		out := append([]nir.Defn{}, defns...)
		sortDefns(out)
		return []Shard{{ID: "out", Defns: out}}
	}

	procs := cfg.Procs
	if procs < 1 {
		procs = 1
	}
	buckets := make([][]nir.Defn, procs)
	for _, d := range defns {
		b := bucketFor(d.Name.TopID(), procs)
		buckets[b] = append(buckets[b], d)
	}

	shards := make([]Shard, 0, procs)
	for i, b := range buckets {
		sortDefns(b)
		shards = append(shards, Shard{ID: strconv.Itoa(i), Defns: b})
	}
	return shards
}

// bucketFor deterministically hashes a top-level name into [0, procs) so that
// partitioning is a pure function of the input, making incremental builds cacheable
// (spec.md §4.1 rationale).
func bucketFor(top string, procs int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(top))
	return int(h.Sum32() % uint32(procs))
}

// sortDefns orders defns by the printed form of their global name, the deterministic
// tie-break spec.md §4.1 step 3 requires independent of upstream ordering.
func sortDefns(defns []nir.Defn) {
	sort.Slice(defns, func(i, j int) bool {
		return defns[i].Name.Normalized() < defns[j].Name.Normalized()
	})
}
