package sources

import (
	"context"
	"errors"

	"github.com/gamedex/gamedex/pkg/logging"
)

// Runner executes extractors sequentially and reports data-quality findings
// at the end of the pass.
type Runner struct {
	sources []Source
}

// NewRunner creates a runner over the given sources, executed in order.
func NewRunner(srcs ...Source) *Runner {
	return &Runner{sources: srcs}
}

// Run performs one reconciliation pass. Ledger usage is reset up front; each
// extractor then runs to completion or failure. A failed extractor aborts
// only its own contribution — the pass continues with the remaining sources
// and the joined failures come back as one error. Stale-fix warnings are
// emitted after all extractors have had their chance to consult the ledger.
func (r *Runner) Run(ctx context.Context, pass *Pass) error {
	log := logging.FromContext(ctx)
	pass.Fixes.Reset()

	var failures []error
	for _, src := range r.sources {
		srcCtx := logging.WithSource(ctx, src.ID().String())
		log.Info().Str("source", src.ID().String()).Msg("Extracting")

		if err := src.Extract(srcCtx, pass); err != nil {
			log.Error().Err(err).Str("source", src.ID().String()).Msg("Extractor failed")
			failures = append(failures, err)
			continue
		}
	}

	pass.Fixes.ReportUnused(ctx)
	return errors.Join(failures...)
}
