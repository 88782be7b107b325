package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/Karonar1/lora-viewer/internal/scanner"
)

// progressReporter shows scan progress. Update is only called from the worker goroutine
// and Close only after the worker has stopped.
type progressReporter interface {
	Update(p scanner.Progress)
	Close()
}

// newProgressReporter draws a progress bar when w is a terminal and logs otherwise.
func newProgressReporter(w io.Writer) progressReporter {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return &barReporter{progress: mpb.New(mpb.WithOutput(w), mpb.WithWidth(40))}
	}
	return logReporter{}
}

type barReporter struct {
	progress *mpb.Progress
	bar      *mpb.Bar
	batchID  string
}

func (r *barReporter) Update(p scanner.Progress) {
	if p.BatchID != r.batchID {
		r.abort()
		r.batchID = p.BatchID
		if p.Total > 0 {
			r.bar = r.progress.New(int64(p.Total),
				mpb.BarStyle().Rbound("|"),
				mpb.PrependDecorators(
					decor.Name("scanning "),
					decor.CountersNoUnit("%d / %d"),
				),
				mpb.AppendDecorators(decor.Percentage()),
			)
		}
	}
	if r.bar != nil {
		r.bar.SetCurrent(int64(p.Done))
	}
}

func (r *barReporter) abort() {
	if r.bar != nil && !r.bar.Completed() {
		r.bar.Abort(true)
	}
	r.bar = nil
}

func (r *barReporter) Close() {
	r.abort()
	r.progress.Wait()
}

type logReporter struct{}

func (logReporter) Update(p scanner.Progress) {
	if p.Finished() {
		log.Info("scan finished", "files", p.Total)
		return
	}
	log.Debug("scan progress", "done", p.Done, "total", p.Total)
}

func (logReporter) Close() {}
