package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Karonar1/lora-viewer/internal/metadata"
	"github.com/Karonar1/lora-viewer/internal/render"
	"github.com/Karonar1/lora-viewer/internal/scanner"
)

type scanOptions struct {
	search string
	watch  bool
	json   bool
}

func newScanCommand(a *app) *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Classify every safetensors file in a directory",
		Long: `Read every model file in a directory in the background and list its model type and
base checkpoint.

With --watch the directory is rescanned whenever a model file changes; a rescan
supersedes a scan still in progress and reuses results for unchanged files.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.lastDir()
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return errors.New("no directory given and no previously opened path")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.scan(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), dir, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.search, "search", "s", "", "Only list files whose name or training tags contain this text")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Keep running and rescan when model files change")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print results as JSON")
	return cmd
}

func (a *app) scan(ctx context.Context, out, errOut io.Writer, dir string, opts *scanOptions) error {
	paths, err := scanner.ListDir(dir, a.cfg.Extensions)
	if err != nil {
		return err
	}
	a.rememberPath(dir)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	reporter := newProgressReporter(errOut)
	finished := make(chan string)
	worker := scanner.NewWorker(func(p scanner.Progress) {
		reporter.Update(p)
		if p.Finished() {
			select {
			case finished <- p.BatchID:
			case <-ctx.Done():
			}
		}
	})

	cache := scanner.NewCache(a.builder.Load)
	var mu sync.Mutex
	var current *scanner.Batch
	submit := func(paths []string) {
		b := cache.Batch(paths)
		mu.Lock()
		current = b
		mu.Unlock()
		log.Debug("submitting scan", "dir", dir, "files", len(paths), "batch", b.ID)
		worker.Submit(b)
	}

	if opts.watch {
		debounce := time.Duration(a.cfg.WatchDebounceMs) * time.Millisecond
		watcher, err := scanner.NewWatcher(dir, a.cfg.Extensions, debounce, func() {
			paths, err := scanner.ListDir(dir, a.cfg.Extensions)
			if err != nil {
				log.Warn("rescan failed", "dir", dir, "error", err)
				return
			}
			submit(paths)
		})
		if err != nil {
			return err
		}
		g.Go(func() error {
			watcher.Run()
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return watcher.Stop()
		})
	}

	g.Go(func() error {
		worker.Run(ctx)
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case id := <-finished:
				mu.Lock()
				b := current
				mu.Unlock()
				if b.ID != id {
					continue
				}
				if err := printScan(out, b, opts); err != nil {
					return err
				}
				if !opts.watch {
					cancel()
					return nil
				}
			}
		}
	})

	submit(paths)
	err = g.Wait()
	reporter.Close()
	return err
}

type scanResult struct {
	Path   string           `json:"path"`
	Error  string           `json:"error,omitempty"`
	Match  string           `json:"match,omitempty"`
	Record *metadata.Record `json:"record,omitempty"`
}

func printScan(out io.Writer, b *scanner.Batch, opts *scanOptions) error {
	var matches []scanner.Match
	if opts.search != "" {
		matches = scanner.Search(b.Entries, opts.search)
	}

	var results []scanResult
	var rows [][]string
	for i, entry := range b.Entries {
		if matches != nil && matches[i] == scanner.MatchNone {
			continue
		}

		result := scanResult{Path: entry.Path}
		if matches != nil {
			result.Match = matches[i].String()
		}
		record, err := entry.Record()
		if err != nil {
			result.Error = err.Error()
			rows = append(rows, []string{render.ModelName(entry.Path), "could not be loaded", ""})
		} else {
			result.Record = &record
			rows = append(rows, []string{
				render.ModelName(entry.Path),
				render.ModelTypes(record),
				record.BaseModelOr(render.UnknownBaseModel),
			})
		}
		results = append(results, result)
	}

	if opts.json {
		if results == nil {
			results = []scanResult{}
		}
		return writeJSON(out, results)
	}
	printf(out, "%s", render.Columns(rows))
	return nil
}
