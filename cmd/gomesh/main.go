package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/2x3systems/gomesh/gomesh"
	"github.com/2x3systems/gomesh/libmesh"
	"github.com/2x3systems/gomesh/libmesh/catalog"
	"github.com/2x3systems/gomesh/libmesh/splitter"
	"github.com/dustin/go-humanize"
	pkgerrors "github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"github.com/prometheus/client_golang/prometheus"
)

// ExitError is a failure that ends the process with a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func configError(err error) error {
	return &ExitError{
		Code:    2,
		Message: err.Error(),
	}
}

func main() {
	code := run(os.Args[1:], os.Stdout, os.Stderr)
	klog.Flush()
	os.Exit(code)
}

// run executes one gomesh invocation and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	code, err := execute(args, stdout, stderr)
	if err == nil {
		return code
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		fmt.Fprintf(stderr, "gomesh: %s\n", exitErr.Message)
		return exitErr.Code
	}
	fmt.Fprintf(stderr, "gomesh: %v\n", err)
	return 1
}

func execute(args []string, stdout, stderr io.Writer) (int, error) {
	fset := flag.NewFlagSet("gomesh", flag.ContinueOnError)
	fset.SetOutput(stderr)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	fset.Set("v", "0")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})

	var flags RunConfig
	configPath := fset.String("config", "", "YAML run file; flags given on the command line win")
	fset.IntVar(&flags.Workers, "workers", 0, "number of splitter workers (0 selects NumCPU+1)")
	fset.StringVar(&flags.Format, "format", "", "graph format: auto, text or xml")
	fset.StringVar(&flags.Catalog, "catalog", "", "result catalog directory")
	fset.StringVar(&flags.MetricsOut, "metrics-out", "", "write refinement metrics to this textfile")
	fset.BoolVar(&flags.Verify, "verify", false, "re-check that the final partition is stable")
	fset.BoolVar(&flags.Print, "print", false, "print the final meshes, one per line")
	fset.BoolVar(&flags.ExitCount, "exit-count", false, "report the mesh count as the exit status (clamped to 255)")
	fset.Usage = func() {
		fmt.Fprintf(stderr, "usage: gomesh [flags] <graph file | script.py>\n")
		fset.PrintDefaults()
	}

	if err := fset.Parse(args); err != nil {
		return 0, configError(err)
	}
	if fset.NArg() != 1 {
		fset.Usage()
		return 0, configError(pkgerrors.Wrapf(gomesh.ErrNoInput, "got %d arguments", fset.NArg()))
	}
	pathname := fset.Arg(0)

	cfg := RunConfig{}
	if *configPath != "" {
		var err error
		if cfg, err = LoadRunConfig(*configPath); err != nil {
			return 0, configError(err)
		}
	}
	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "workers":
			cfg.Workers = flags.Workers
		case "format":
			cfg.Format = flags.Format
		case "catalog":
			cfg.Catalog = flags.Catalog
		case "metrics-out":
			cfg.MetricsOut = flags.MetricsOut
		case "verify":
			cfg.Verify = flags.Verify
		case "print":
			cfg.Print = flags.Print
		case "exit-count":
			cfg.ExitCount = flags.ExitCount
		}
	})
	cfg.applyDefaults()
	format, err := cfg.validate()
	if err != nil {
		return 0, configError(err)
	}

	if strings.EqualFold(filepath.Ext(pathname), ".py") {
		return 0, runPython(pathname, stdout)
	}

	blocks, err := partitionGraph(pathname, format, cfg)
	if err != nil {
		return 0, err
	}

	if cfg.Print {
		if err := gomesh.WriteBlocks(stdout, blocks, gomesh.PrintOpts{}); err != nil {
			return 0, err
		}
	}

	count := len(blocks)
	if cfg.ExitCount {
		if count > 255 {
			klog.Warningf("mesh count %d exceeds the exit status range", count)
			count = 255
		}
		return count, nil
	}
	fmt.Fprintln(stdout, count)
	return 0, nil
}

// partitionGraph loads the graph and returns its final meshes, from the catalog if a result is stored there.
func partitionGraph(pathname string, format gomesh.GraphFormat, cfg RunConfig) ([]gomesh.Block, error) {
	X, err := libmesh.LoadGraph(pathname, format)
	if err != nil {
		return nil, err
	}
	fingerprint := X.Fingerprint()

	var cat gomesh.Catalog
	if cfg.Catalog != "" {
		cat, err = catalog.OpenCatalog(gomesh.CatalogOpts{
			DbPathName: cfg.Catalog,
		})
		if err != nil {
			return nil, err
		}
		defer cat.Close()

		// A verify run always recomputes
		if !cfg.Verify {
			blocks, err := cat.Lookup(fingerprint)
			if err == nil {
				klog.V(1).Infof("%s: using stored result %016x (%s meshes)", pathname, fingerprint, humanize.Comma(int64(len(blocks))))
				return blocks, nil
			}
			if !errors.Is(err, gomesh.ErrNotFound) {
				return nil, err
			}
		}
	}

	reg := prometheus.NewRegistry()
	P, _, err := splitter.Refine(X, gomesh.RefineOpts{
		Workers:    cfg.Workers,
		Registerer: reg,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Verify {
		if err := libmesh.VerifyStable(X, P); err != nil {
			return nil, err
		}
		klog.V(1).Infof("%s: partition verified stable", pathname)
	}

	blocks := P.Blocks()
	if cat != nil {
		if cfg.Verify {
			stored, err := cat.Lookup(fingerprint)
			if err == nil && !gomesh.SameBlocks(stored, blocks) {
				return nil, pkgerrors.Errorf("catalog entry %016x does not match the recomputed partition", fingerprint)
			}
		}
		if err := cat.Store(fingerprint, blocks); err != nil {
			return nil, err
		}
	}

	if cfg.MetricsOut != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsOut, reg); err != nil {
			return nil, pkgerrors.Wrap(err, "write metrics")
		}
	}
	return blocks, nil
}
