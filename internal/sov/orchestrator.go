package sov

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/echomed/resonance/internal/platform"
	"github.com/echomed/resonance/pkg/retry"
)

// Outcome is one completed probe: the classifier's verdict plus the raw
// platform response it was judged on. Failed probes carry the zero verdict
// and an empty raw response so repeat counts stay honest.
type Outcome struct {
	Verdict
	RawResponse string
}

// Orchestrator fans one query out into repeated probes against a platform,
// bounding in-flight calls and retrying transient failures.
type Orchestrator struct {
	classifier  *Classifier
	policy      retry.Policy
	maxInFlight int
	logger      *zap.Logger
}

func NewOrchestrator(classifier *Classifier, maxInFlight int, logger *zap.Logger) *Orchestrator {
	if maxInFlight <= 0 {
		maxInFlight = 3
	}
	return &Orchestrator{
		classifier:  classifier,
		policy:      retry.DefaultPolicy(),
		maxInFlight: maxInFlight,
		logger:      logger,
	}
}

// Run issues repeat probes of queryText against q and classifies each answer
// for tenantName. It always returns exactly repeat outcomes: a probe whose
// retry budget is exhausted contributes a negative outcome instead of an
// error, so one flaky platform cannot sink a whole batch.
func (o *Orchestrator) Run(ctx context.Context, tenantName, queryText string, q platform.Querier, repeat int) []Outcome {
	outcomes := make([]Outcome, repeat)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxInFlight)

	for i := 0; i < repeat; i++ {
		g.Go(func() error {
			var raw string
			err := retry.Do(ctx, o.policy, func(ctx context.Context) error {
				var qerr error
				raw, qerr = q.Query(ctx, queryText)
				if qerr != nil {
					return retry.Transient(qerr)
				}
				return nil
			})
			if err != nil {
				o.logger.Error("Probe failed after retries",
					zap.String("platform", string(q.Platform())),
					zap.String("query", queryText),
					zap.Error(err))
				outcomes[i] = Outcome{}
				return nil
			}

			outcomes[i] = Outcome{
				Verdict:     o.classifier.Classify(ctx, tenantName, raw),
				RawResponse: raw,
			}
			return nil
		})
	}

	// Workers never return errors; Wait only orders the writes above.
	_ = g.Wait()
	return outcomes
}
