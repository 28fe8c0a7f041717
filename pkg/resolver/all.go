package resolver

import (
	"context"
	"sync"
)

// ResolveAll resolves every config concurrently and waits for all of them.
// Both returned slices line up with configs: a source that failed has a nil
// entry in sources and its error at the same index in errs. Failures are not
// logged here, callers report them.
func (r *Resolver) ResolveAll(ctx context.Context, configs []SourceConfig) ([]*ResolvedSource, []error) {
	sources := make([]*ResolvedSource, len(configs))
	errs := make([]error, len(configs))

	var wg sync.WaitGroup
	wg.Add(len(configs))
	for i, cfg := range configs {
		go func(i int, cfg SourceConfig) {
			defer wg.Done()
			// Each goroutine writes only its own index
			sources[i], errs[i] = r.Resolve(ctx, cfg)
		}(i, cfg)
	}
	wg.Wait()
	return sources, errs
}
