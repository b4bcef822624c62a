package parallel

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/msalah0e/flowcanvas/internal/ui"
	"golang.org/x/sync/errgroup"
)

// Result holds the outcome of a parallel task.
type Result struct {
	Name    string
	OK      bool
	Err     error
	Output  string
	Elapsed time.Duration
}

// Task is a function that runs in parallel.
type Task struct {
	Name string
	Fn   func(ctx context.Context) (string, error)
}

// Run executes tasks with at most concurrency in flight and returns results
// in submission order. Progress lines go to progress when it is non-nil.
// Cancelling ctx stops tasks that have not started yet.
func Run(ctx context.Context, tasks []Task, concurrency int, progress io.Writer) []Result {
	if concurrency < 1 {
		concurrency = 4
	}

	results := make([]Result, len(tasks))
	var mu sync.Mutex
	report := func(format string, args ...any) {
		if progress == nil {
			return
		}
		mu.Lock()
		fmt.Fprintf(progress, format, args...)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Name: task.Name, Err: err}
				return nil
			}
			start := time.Now()
			output, err := task.Fn(gctx)
			elapsed := time.Since(start)

			if err != nil {
				results[i] = Result{Name: task.Name, Err: err, Output: output, Elapsed: elapsed}
				report("  %s %s %s\n", ui.StatusIcon(false), task.Name, ui.Bad.Sprintf("(%v)", err))
			} else {
				results[i] = Result{Name: task.Name, OK: true, Output: output, Elapsed: elapsed}
				report("  %s %s %s\n", ui.StatusIcon(true), task.Name, ui.Subtle.Sprint(output))
			}
			return nil // results carry errors; the group never fails
		})
	}

	_ = g.Wait()
	return results
}

// Failed counts results that did not succeed.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.OK {
			n++
		}
	}
	return n
}
