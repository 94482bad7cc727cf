// Package parallel fans evaluation work out over goroutines.
package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/mathlib-go/mathlib/internal/config"
	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64,
	}
}

// FromConfig converts the loaded runtime settings.
func FromConfig(c *config.Parallel) Config {
	return Config{Enabled: c.Enabled, NumWorkers: c.NumWorkers, MinChunkSize: c.MinChunkSize}
}

// chunks splits [0, n) into at most NumWorkers ranges of at least
// MinChunkSize items. It returns nil when the work should run sequentially.
func (cfg Config) chunks(n int) [][2]int {
	if !cfg.Enabled || cfg.NumWorkers < 2 || n < cfg.MinChunkSize {
		return nil
	}
	size := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize, 1)
	var out [][2]int
	for start := 0; start < n; start += size {
		out = append(out, [2]int{start, min(start+size, n)})
	}
	return out
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	ranges := cfg.chunks(n)
	if ranges == nil {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	for _, r := range ranges {
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(r[0], r[1])
	}
	wg.Wait()
}

// ForGrid executes f(i, j) for every cell of a rows x cols grid.
func ForGrid(rows, cols int, f func(i, j int), cfg Config) {
	For(rows*cols, func(k int) {
		f(k/cols, k%cols)
	}, cfg)
}

// Evaluator is the part of a compiled or interpreted function used here.
// Implementations must be safe for concurrent use.
type Evaluator interface {
	Evaluate(args ...float64) (float64, error)
}

// EvaluateAll evaluates f at every point. The first error stops the remaining
// work and is returned with the index of the failing point.
func EvaluateAll(f Evaluator, points [][]float64, cfg Config) ([]float64, error) {
	out := make([]float64, len(points))
	ranges := cfg.chunks(len(points))
	if ranges == nil {
		ranges = [][2]int{{0, len(points)}}
	}

	g, ctx := errgroup.WithContext(context.Background())
	for _, r := range ranges {
		s, e := r[0], r[1]
		g.Go(func() error {
			for i := s; i < e; i++ {
				if ctx.Err() != nil {
					return nil
				}
				v, err := f.Evaluate(points[i]...)
				if err != nil {
					return fmt.Errorf("point %d: %w", i, err)
				}
				out[i] = v
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// EvaluateGrid evaluates every function at every point. Row p of the result
// holds the values of fs at points[p]. After the first error the remaining
// cells are skipped and that error is returned.
func EvaluateGrid(fs []Evaluator, points [][]float64, cfg Config) ([][]float64, error) {
	out := make([][]float64, len(points))
	for p := range out {
		out[p] = make([]float64, len(fs))
	}

	var (
		failed atomic.Bool
		once   sync.Once
		first  error
	)
	ForGrid(len(points), len(fs), func(p, i int) {
		if failed.Load() {
			return
		}
		v, err := fs[i].Evaluate(points[p]...)
		if err != nil {
			once.Do(func() {
				first = fmt.Errorf("point %d, function %d: %w", p, i, err)
				failed.Store(true)
			})
			return
		}
		out[p][i] = v
	}, cfg)
	if first != nil {
		return nil, first
	}
	return out, nil
}
