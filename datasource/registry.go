// Package datasource keeps the connection pools of the logical datasources used by generated tables and queries.
package datasource

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotInitialized     = errors.New("registry not initialized")
	ErrAlreadyInitialized = errors.New("registry already initialized")
	ErrNoPool             = errors.New("no pool found")
)

// Registry maps datasource identifiers to pools. The mapping is installed once and never changes.
type Registry struct {
	opts  *options
	mu    sync.Mutex
	pools atomic.Pointer[map[string]*Pool]
}

func NewRegistry(opts ...Option) *Registry {
	return &Registry{opts: newOptions(opts)}
}

// Initialize opens a pool per datasource and installs the mapping.
// Fails when the registry is already initialized, unless it runs in the test mode.
func (r *Registry) Initialize(ctx context.Context, configs map[string]Config) error {
	if r.opts.err != nil {
		return r.opts.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if done, err := r.installed(); done {
		return err
	}

	var (
		mu    sync.Mutex
		pools = make(map[string]*Pool, len(configs))
	)
	g, gctx := errgroup.WithContext(ctx)
	for id, config := range configs {
		g.Go(func() error {
			p, err := open(gctx, id, config, r.opts)
			if err != nil {
				return err
			}
			mu.Lock()
			pools[id] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, p := range pools {
			_ = p.Close()
		}
		return err
	}
	r.pools.Store(&pools)
	r.opts.log.Info("datasources initialized", zap.Strings("datasources", ids(pools)))
	return nil
}

// Install installs already opened pools, with the same once semantic as Initialize.
func (r *Registry) Install(pools ...*Pool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if done, err := r.installed(); done {
		return err
	}
	mapping := make(map[string]*Pool, len(pools))
	for _, p := range pools {
		if _, ok := mapping[p.ID()]; ok {
			return errors.Errorf("duplicated datasource %s", p.ID())
		}
		mapping[p.ID()] = p
	}
	r.pools.Store(&mapping)
	return nil
}

func (r *Registry) installed() (bool, error) {
	if r.pools.Load() == nil {
		return false, nil
	} else if r.opts.testMode {
		r.opts.log.Debug("registry already initialized, test mode")
		return true, nil
	}
	return true, ErrAlreadyInitialized
}

// Lookup returns the pool of a datasource.
func (r *Registry) Lookup(id string) (*Pool, error) {
	pools := r.pools.Load()
	if pools == nil {
		return nil, ErrNotInitialized
	}
	p, ok := (*pools)[id]
	if !ok {
		return nil, errors.Wrapf(ErrNoPool, "datasource %s", id)
	}
	return p, nil
}

// Executor returns the pool of a datasource as a statement executor.
func (r *Registry) Executor(id string) (Executor, error) {
	p, err := r.Lookup(id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Begin starts a transaction on the pool of a datasource.
func (r *Registry) Begin(ctx context.Context, id string) (*Tx, error) {
	p, err := r.Lookup(id)
	if err != nil {
		return nil, err
	}
	return p.BeginTx(ctx, nil)
}

// Close closes the pool of a datasource and reports whether it is closed.
// The pool stays registered; statements on it fail.
func (r *Registry) Close(id string) (bool, error) {
	p, err := r.Lookup(id)
	if err != nil {
		return false, err
	}
	err = p.Close()
	return p.Closed(), err
}

// Datasources lists the registered datasource identifiers.
func (r *Registry) Datasources() []string {
	pools := r.pools.Load()
	if pools == nil {
		return nil
	}
	return ids(*pools)
}

func ids(pools map[string]*Pool) []string {
	result := make([]string, 0, len(pools))
	for id := range pools {
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}
