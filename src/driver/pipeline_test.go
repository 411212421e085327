package driver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nirlang/nirllvm/src/nir"
	"github.com/nirlang/nirllvm/src/util"
)

func identity(group []nir.Defn) ([]nir.Defn, error) { return group, nil }

func TestRunReleaseNoLTOWritesSingleShard(t *testing.T) {
	dir := t.TempDir()
	defns := []nir.Defn{
		{
			Kind: nir.DDefine, Name: nir.Top("main"), Ret: nir.VoidType(),
			Insts: []nir.Inst{
				{Kind: nir.ILabel, LabelID: 0},
				{Kind: nir.IRet},
			},
		},
	}
	opt := util.Options{WorkDir: dir, Mode: "release", LTO: "", Threads: 2}

	if err := Run(defns, opt, identity); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	path := filepath.Join(dir, "out.ll")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
	if !strings.Contains(string(b), `define void @"main"()`) {
		t.Errorf("missing expected function in output: %s", b)
	}
}

func TestRunPropagatesLoweringError(t *testing.T) {
	dir := t.TempDir()
	defns := []nir.Defn{{Kind: nir.DDeclare, Name: nir.Top("f"), Ret: nir.VoidType()}}
	opt := util.Options{WorkDir: dir, Mode: "debug"}

	failingLower := func(group []nir.Defn) ([]nir.Defn, error) {
		return nil, errBoom
	}
	if err := Run(defns, opt, failingLower); err == nil {
		t.Fatal("expected Run() to propagate the lowering error")
	}
}

var errBoom = &boomError{}

type boomError struct{}

func (*boomError) Error() string { return "boom" }
