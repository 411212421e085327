package codegen

import (
	"testing"

	"github.com/nirlang/nirllvm/src/nir"
)

func sampleDefns() []nir.Defn {
	return []nir.Defn{
		{Kind: nir.DDeclare, Name: nir.Top("Zeta"), Ret: nir.VoidType()},
		{Kind: nir.DDeclare, Name: nir.Top("Alpha"), Ret: nir.VoidType()},
		{Kind: nir.DDeclare, Name: nir.Top("Mid").Member("m"), Ret: nir.VoidType()},
	}
}

func TestPartitionReleaseNoLTOSingleShard(t *testing.T) {
	shards := Partition(sampleDefns(), Config{Mode: ModeRelease, LTO: "", Procs: 4})
	if len(shards) != 1 || shards[0].ID != "out" {
		t.Fatalf("expected a single out shard, got %+v", shards)
	}
	if shards[0].Defns[0].Name.Normalized() > shards[0].Defns[1].Name.Normalized() {
		t.Errorf("expected shard defns sorted by normalized name: %+v", shards[0].Defns)
	}
}

func TestPartitionDebugShardsDeterministically(t *testing.T) {
	defns := sampleDefns()
	first := Partition(defns, Config{Mode: ModeDebug, Procs: 4})
	second := Partition(defns, Config{Mode: ModeDebug, Procs: 4})

	if len(first) != len(second) {
		t.Fatalf("shard count differs between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("shard %d id differs: %s vs %s", i, first[i].ID, second[i].ID)
		}
		if len(first[i].Defns) != len(second[i].Defns) {
			t.Errorf("shard %d defn count differs between runs", i)
			continue
		}
		for j := range first[i].Defns {
			if first[i].Defns[j].Name.Normalized() != second[i].Defns[j].Name.Normalized() {
				t.Errorf("shard %d defn %d differs between runs", i, j)
			}
		}
	}
}

func TestPartitionReleaseWithLTOShards(t *testing.T) {
	shards := Partition(sampleDefns(), Config{Mode: ModeRelease, LTO: "thin", Procs: 2})
	if len(shards) != 2 {
		t.Fatalf("expected 2 shards with LTO enabled, got %d", len(shards))
	}
}
