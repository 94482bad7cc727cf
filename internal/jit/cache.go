package jit

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mathlib-go/mathlib/internal/expr"
	"github.com/mathlib-go/mathlib/internal/logging"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// State is the compilation state of a node in a Cache.
type State int

// Compilation states. Compiled and CompileFailed are terminal until the node
// is invalidated.
const (
	NotCompiled State = iota
	Compiling
	Compiled
	CompileFailed
)

func (s State) String() string {
	switch s {
	case NotCompiled:
		return "not-compiled"
	case Compiling:
		return "compiling"
	case Compiled:
		return "compiled"
	case CompileFailed:
		return "compile-failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Stats holds cache counters.
type Stats struct {
	Compiles int64 // successful compilations
	Hits     int64 // Compile calls answered from the cache
	Failures int64 // failed compilations
	Hoisted  int64 // constant subexpressions evaluated into slots
	Entries  int   // nodes currently tracked
}

// CacheConfig configures a Cache.
type CacheConfig struct {
	Enabled bool          // false makes Function always return the interpreter
	Hoist   bool          // hoist constant subexpressions
	Logger  *logrus.Entry // nil uses the process logger
}

// DefaultCacheConfig returns a config with compilation and hoisting enabled.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{Enabled: true, Hoist: true}
}

type entry struct {
	state State
	eval  *Evaluator
	err   error
}

// Cache memoizes compiled evaluators by node identity. It is safe for
// concurrent use. Concurrent compiles of one node are collapsed into a single
// compilation; compiles of different nodes do not wait for each other.
type Cache struct {
	cfg CacheConfig
	log *logrus.Entry

	mu      sync.RWMutex
	entries map[*expr.Node]*entry
	group   singleflight.Group

	hmu     sync.Mutex
	hoisted map[*expr.Node]*slot

	compiles atomic.Int64
	hits     atomic.Int64
	failures atomic.Int64
	nhoisted atomic.Int64
}

// NewCache creates an empty cache.
func NewCache(cfg CacheConfig) *Cache {
	log := cfg.Logger
	if log == nil {
		log = logging.Component("jit")
	}
	return &Cache{
		cfg:     cfg,
		log:     log,
		entries: make(map[*expr.Node]*entry),
		hoisted: make(map[*expr.Node]*slot),
	}
}

// Compile returns the evaluator for n, compiling it on first use. A failed
// compilation is remembered and its error returned until n is invalidated.
func (c *Cache) Compile(n *expr.Node) (*Evaluator, error) {
	c.mu.RLock()
	e := c.entries[n]
	c.mu.RUnlock()
	if e != nil {
		switch e.state {
		case Compiled:
			c.hits.Add(1)
			return e.eval, nil
		case CompileFailed:
			return nil, e.err
		}
	}

	v, _, _ := c.group.Do(flightKey(n), func() (any, error) {
		c.mu.Lock()
		if e := c.entries[n]; e != nil && (e.state == Compiled || e.state == CompileFailed) {
			c.mu.Unlock()
			return e, nil
		}
		c.entries[n] = &entry{state: Compiling}
		c.mu.Unlock()

		e := c.compile(n)

		c.mu.Lock()
		c.entries[n] = e
		c.mu.Unlock()
		return e, nil
	})
	e = v.(*entry)
	if e.state == CompileFailed {
		return nil, e.err
	}
	return e.eval, nil
}

// flightKey identifies in-flight compilations of one node.
func flightKey(n *expr.Node) string {
	return fmt.Sprintf("%p", n)
}

func (c *Cache) compile(n *expr.Node) *entry {
	start := time.Now()
	var hoist func(*expr.Node) (*slot, error)
	if c.cfg.Hoist {
		hoist = c.slotFor
	}
	p, err := lower(n, n.Variables(), hoist)
	if err == nil {
		var run evalFn
		run, err = generate(p)
		if err == nil {
			c.compiles.Add(1)
			c.log.WithFields(logrus.Fields{
				"kind":         n.Kind().String(),
				"instructions": len(p.Code),
				"hoisted":      len(p.Hoisted),
				"duration":     time.Since(start),
			}).Debug("compiled expression")
			return &entry{state: Compiled, eval: newEvaluator(n, p, run)}
		}
	}
	c.failures.Add(1)
	c.log.WithFields(logrus.Fields{
		"kind":  n.Kind().String(),
		"error": err,
	}).Debug("compilation failed")
	return &entry{state: CompileFailed, err: err}
}

// slotFor returns the hoisted slot of a closed subexpression, evaluating it
// the first time it is requested.
func (c *Cache) slotFor(n *expr.Node) (*slot, error) {
	c.hmu.Lock()
	s, ok := c.hoisted[n]
	if !ok {
		s = &slot{}
		c.hoisted[n] = s
	}
	c.hmu.Unlock()

	s.once.Do(func() {
		p, err := lower(n, nil, nil)
		if err != nil {
			s.err = err
			return
		}
		run, err := generate(p)
		if err != nil {
			s.err = err
			return
		}
		s.value = run(make([]float64, p.NumRegs))
		c.nhoisted.Add(1)
	})
	return s, s.err
}

// State returns the compilation state of n.
func (c *Cache) State(n *expr.Node) State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[n]; ok {
		return e.state
	}
	return NotCompiled
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	entries := len(c.entries)
	c.mu.RUnlock()
	return Stats{
		Compiles: c.compiles.Load(),
		Hits:     c.hits.Load(),
		Failures: c.failures.Load(),
		Hoisted:  c.nhoisted.Load(),
		Entries:  entries,
	}
}

// Invalidate returns n to NotCompiled. A compile of n already in flight
// still stores its result when it finishes.
func (c *Cache) Invalidate(n *expr.Node) {
	c.mu.Lock()
	delete(c.entries, n)
	c.mu.Unlock()
}

// Purge drops every entry and hoisted slot. Counters are kept.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = make(map[*expr.Node]*entry)
	c.mu.Unlock()
	c.hmu.Lock()
	c.hoisted = make(map[*expr.Node]*slot)
	c.hmu.Unlock()
}

// Function returns a compiled evaluator for n, or the interpreter when n
// cannot be compiled or compilation is disabled.
func (c *Cache) Function(n *expr.Node) Function {
	if !c.cfg.Enabled {
		return Interpreted(n)
	}
	ev, err := c.Compile(n)
	if err != nil {
		level := logrus.DebugLevel
		if !errors.Is(err, expr.ErrUnsupportedOperator) {
			level = logrus.WarnLevel
		}
		c.log.WithFields(logrus.Fields{
			"kind":  n.Kind().String(),
			"error": err,
		}).Log(level, "falling back to interpreter")
		return Interpreted(n)
	}
	return ev
}

var (
	defaultMu    sync.RWMutex
	defaultCache *Cache
)

// Default returns the process-wide cache.
func Default() *Cache {
	defaultMu.RLock()
	c := defaultCache
	defaultMu.RUnlock()
	if c != nil {
		return c
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultCache == nil {
		defaultCache = NewCache(DefaultCacheConfig())
	}
	return defaultCache
}

// SetDefault replaces the process-wide cache.
func SetDefault(c *Cache) {
	defaultMu.Lock()
	defaultCache = c
	defaultMu.Unlock()
}

// Compile compiles n with the process-wide cache.
func Compile(n *expr.Node) (*Evaluator, error) {
	return Default().Compile(n)
}

// FunctionOf returns n's Function from the process-wide cache.
func FunctionOf(n *expr.Node) Function {
	return Default().Function(n)
}
