// Command nirllvmc drives the NIR-to-LLVM backend: it reads a linked NIR defn set and
// writes one or more LLVM IR text files to a working directory. It does not invoke
// clang, opt or llc itself; build orchestration is out of scope (spec.md §1).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/nirlang/nirllvm/src/driver"
	"github.com/nirlang/nirllvm/src/nir"
	"github.com/nirlang/nirllvm/src/util"
)

var (
	nirPath string
	outDir  string
	triple  string
	mode    string
	lto     string
	threads int
)

var rootCmd = &cobra.Command{
	Use:   "nirllvmc [nir file]",
	Short: "NIR-to-LLVM backend code generator",
	Long: `nirllvmc translates a linked, reachability-pruned NIR definition set into
one or more textual LLVM IR (.ll) files.

It performs no optimization, no register allocation and no instruction
selection beyond what LLVM IR itself implies; it is the final stage of a
whole-program ahead-of-time compiler's pipeline, handing its output to
an external clang/opt/llc invocation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args[0])
	},
}

func init() {
	rootCmd.Flags().StringVarP(&outDir, "out", "o", "out", "working directory to write .ll shards into")
	rootCmd.Flags().StringVar(&triple, "triple", "", "target triple string (omitted from output if empty)")
	rootCmd.Flags().StringVar(&mode, "mode", "debug", "build mode: debug|release")
	rootCmd.Flags().StringVar(&lto, "lto", "", "external LTO toolchain identifier, empty or \"none\" means none")
	rootCmd.Flags().IntVarP(&threads, "threads", "t", 0, "shard/task concurrency, 0 means GOMAXPROCS")

	// glog registers its flags on the standard flag package; fold them into cobra's
	// pflag set so -v, -logtostderr and friends work alongside our own flags.
	rootCmd.Flags().AddGoFlagSet(flag.CommandLine)
}

func run(path string) error {
	defer glog.Flush()

	if mode != "debug" && mode != "release" {
		return fmt.Errorf("nirllvm: --mode must be \"debug\" or \"release\", got %q", mode)
	}

	defns, err := readProgram(path)
	if err != nil {
		return err
	}

	opt := util.Options{
		Triple:  triple,
		WorkDir: outDir,
		Mode:    mode,
		LTO:     lto,
		Threads: threads,
	}
	if err := opt.Validate(); err != nil {
		return err
	}

	glog.V(1).Infof("nirllvm: loaded %d defns from %s", len(defns), path)
	return driver.Run(defns, opt, identityLower)
}

// identityLower stands in for the external high-level-to-low-level lowering
// collaborator (spec.md §1 "out of scope"): nirllvmc itself consumes only NIR that is
// already in the low-level supported subset, so there is nothing left to transform.
func identityLower(group []nir.Defn) ([]nir.Defn, error) {
	return group, nil
}

// readProgram decodes a JSON-encoded array of nir.Defn from path. JSON is the interchange
// format between the upstream lowering/linking stage and this backend; it is not part of
// spec.md's core but is required for nirllvmc to be a runnable program.
func readProgram(path string) ([]nir.Defn, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("nirllvm: opening %s: %w", path, err)
	}
	defer f.Close()

	var defns []nir.Defn
	if err := json.NewDecoder(f).Decode(&defns); err != nil {
		return nil, fmt.Errorf("nirllvm: decoding %s: %w", path, err)
	}
	return defns, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
