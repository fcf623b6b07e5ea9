// Command gdslverify is a thin CLI wrapper around the verifier and
// diff packages: it reads a command stream (or two snapshot images)
// from disk, calls into the core, and prints the result. It carries
// none of the core's semantics itself — exactly the "read file, call
// library, print" shape of the teacher's cmd/ublk-mem, scoped down
// from a runnable device server to a file-driven verification tool
// since file I/O and device dispatch are explicitly out of the core's
// scope (§1).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ehrlich-b/gdslverify/diff"
	"github.com/ehrlich-b/gdslverify/internal/logging"
	"github.com/ehrlich-b/gdslverify/report"
	"github.com/ehrlich-b/gdslverify/verifier"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("gdslverify", flag.ContinueOnError)
	var (
		level        = fs.String("level", "domain", "conformance level: syntax, phase, or domain")
		ignoreVendor = fs.Bool("ignore-unknown-opcodes", false, "treat unrecognized/vendor opcodes as one-byte no-ops")
		failFast     = fs.Bool("fail-fast", false, "stop at the first error instead of collecting as many diagnostics as possible")
		capacity     = fs.Int("report-capacity", 256, "maximum retained diagnostics")
		baseFile     = fs.String("base", "", "base snapshot image (diff/patch mode)")
		targetFile   = fs.String("target", "", "target snapshot image (diff mode)")
		pageSize     = fs.Uint("page-size", diff.DefaultPageSize, "diff page size in bytes, must be a power of two")
	)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage:\n  gdslverify [flags] <stream-file>\n  gdslverify -base=<file> -target=<file> [flags]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *baseFile != "" {
		return runDiff(*baseFile, *targetFile, uint32(*pageSize))
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	return runVerify(fs.Arg(0), *level, *ignoreVendor, !*failFast, *capacity)
}

func runVerify(path, levelName string, ignoreVendor, continueOnError bool, capacity int) int {
	stream, err := os.ReadFile(path)
	if err != nil {
		logging.Default().Error("failed to read stream file", "path", path, "err", err)
		return 1
	}

	lvl, err := parseLevel(levelName)
	if err != nil {
		logging.Default().Error(err.Error())
		return 2
	}

	cfg := verifier.DefaultConfig()
	cfg.Level = lvl
	cfg.IgnoreUnknownOpcodes = ignoreVendor
	cfg.ContinueOnError = continueOnError
	cfg.ReportCapacity = capacity

	rep, err := verifier.Verify(stream, cfg)
	if err != nil {
		logging.Default().Error("verify invocation failed", "err", err)
		return 1
	}

	printReport(rep)
	if !rep.Success {
		return 1
	}
	return 0
}

func printReport(rep *report.Report) {
	fmt.Printf("success=%v instructions=%d errors=%d warnings=%d info=%d dropped=%d\n",
		rep.Success, rep.InstructionCount, rep.ErrorCount, rep.WarningCount, rep.InfoCount, rep.Dropped())
	for _, d := range rep.Diagnostics() {
		fmt.Println(d.String())
	}
}

func runDiff(basePath, targetPath string, pageSize uint32) int {
	base, err := os.ReadFile(basePath)
	if err != nil {
		logging.Default().Error("failed to read base image", "path", basePath, "err", err)
		return 1
	}

	if targetPath == "" {
		logging.Default().Error("-target is required alongside -base")
		return 2
	}
	target, err := os.ReadFile(targetPath)
	if err != nil {
		logging.Default().Error("failed to read target image", "path", targetPath, "err", err)
		return 1
	}

	effectivePageSize := pageSize
	if effectivePageSize == 0 {
		effectivePageSize = diff.DefaultPageSize
	}

	d, err := diff.Compute(base, target, pageSize)
	if err != nil {
		logging.Default().Error("diff failed", "err", err)
		return 1
	}
	defer d.Release()

	// Compute itself always produces a Diff at the requested page size,
	// but ExpectPageSize is exercised here anyway so a Diff loaded from
	// disk via UnmarshalBinary (a future -diff-file flag) gets the same
	// guard before Patch runs against a base image captured elsewhere.
	if err := d.ExpectPageSize(effectivePageSize); err != nil {
		logging.Default().Error("diff page size mismatch", "err", err)
		return 1
	}

	patched, err := d.Patch(base)
	if err != nil {
		logging.Default().Error("patch failed", "err", err)
		return 1
	}
	roundTrips := string(patched) == string(target)

	fmt.Printf("changed_pages=%d target_length=%d page_size=%d round_trip_ok=%v\n",
		len(d.Chunks), d.TargetLength, d.PageSize, roundTrips)
	for _, p := range d.ChangedPages() {
		fmt.Printf("page %d\n", p)
	}
	if !roundTrips {
		return 1
	}
	return 0
}

func parseLevel(name string) (verifier.Level, error) {
	switch name {
	case "syntax":
		return verifier.Syntax, nil
	case "phase":
		return verifier.Phase, nil
	case "domain":
		return verifier.Domain, nil
	default:
		return 0, fmt.Errorf("unknown conformance level %q (want syntax, phase, or domain)", name)
	}
}
