package main

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-python/gpython/py"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	_ "github.com/2x3systems/gomesh/pymesh"
	_ "github.com/go-python/gpython/stdlib"
)

// runPython executes the script at pathname with the _pymesh module importable.
// If stdout is a file, the script's sys.stdout is pointed at it.
func runPython(pathname string, stdout io.Writer) error {
	ctx := py.NewContext(py.DefaultContextOpts())

	if file, ok := stdout.(*os.File); ok {
		sys := ctx.Store().MustGetModule("sys")
		sys.Globals["stdout"] = &py.File{
			File:     file,
			FileMode: py.FileWrite,
		}
	}

	startTime := time.Now()
	klog.V(1).Infof("<<<>>>   executing '%s'   <<<>>>", pathname)

	// sys.path entries are joined onto the script path, so an absolute path is resolved from its own dir
	opts := py.CompileOpts{}
	script := pathname
	if filepath.IsAbs(pathname) {
		opts.CurDir = filepath.Dir(pathname)
		script = filepath.Base(pathname)
	}

	_, err := py.RunFile(ctx, script, opts, nil)
	if err == nil {
		klog.V(1).Infof("<<<>>>   execution complete: %v   <<<>>>", time.Since(startTime))
	}

	ctx.Close()
	<-ctx.Done()

	if err != nil {
		py.TracebackDump(err)
		return errors.Wrapf(err, "run %s", pathname)
	}
	return nil
}
