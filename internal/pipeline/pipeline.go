package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/AbdallahIsmaili/DeepBTC/internal/dataset"
	"github.com/AbdallahIsmaili/DeepBTC/internal/domain"
	"github.com/AbdallahIsmaili/DeepBTC/internal/frame"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const defaultRetentionTarget = 0.90

// Pipeline runs the ordered feature-fusion stages over pre-loaded sources.
// Every stage takes the table-so-far and returns a new table, so stage order
// is an explicit contract rather than an artifact of shared mutation.
type Pipeline struct {
	tracer          trace.Tracer
	retentionTarget float64
}

func New(tracer trace.Tracer, retentionTarget float64) *Pipeline {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("pipeline")
	}
	if retentionTarget <= 0 || retentionTarget > 1 {
		retentionTarget = defaultRetentionTarget
	}
	return &Pipeline{tracer: tracer, retentionTarget: retentionTarget}
}

func (p *Pipeline) Run(ctx context.Context, src *dataset.Sources) (*frame.Frame, *domain.RetentionReport, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	report := &domain.RetentionReport{
		RunAt:           time.Now().UTC(),
		RetentionTarget: p.retentionTarget,
		ImputedCells:    make(map[string]int),
	}

	log.Println("[1/5] generating price features")
	f, err := p.runStage(ctx, "pipeline.price-features", func() (*frame.Frame, error) {
		return priceFeatures(src.OHLCV)
	})
	if err != nil {
		return nil, nil, err
	}
	report.InitialRows = f.Len()

	log.Println("[2/5] merging external sources")
	_, mergeSpan := p.tracer.Start(ctx, "pipeline.merge-sources")
	f = mergeSource(f, domain.SourceBlockchain, src.Blockchain, report)
	f = mergeSource(f, domain.SourceSentiment, src.Sentiment, report)
	f = mergeSource(f, domain.SourceMacro, src.Macro, report)
	mergeSpan.End()

	log.Println("[3/5] computing cross-source derived features")
	f, err = p.runStage(ctx, "pipeline.derived-features", func() (*frame.Frame, error) {
		return derivedFeatures(f)
	})
	if err != nil {
		return nil, nil, err
	}

	log.Println("[4/5] creating target labels")
	f, err = p.runStage(ctx, "pipeline.labels", func() (*frame.Frame, error) {
		return labelFeatures(f)
	})
	if err != nil {
		return nil, nil, err
	}

	log.Println("[5/5] finalizing dataset")
	f, err = p.runStage(ctx, "pipeline.finalize", func() (*frame.Frame, error) {
		return finalize(f, report)
	})
	if err != nil {
		return nil, nil, err
	}

	logReport(report)
	return f, report, nil
}

func (p *Pipeline) runStage(ctx context.Context, name string, fn func() (*frame.Frame, error)) (*frame.Frame, error) {
	_, span := p.tracer.Start(ctx, name)
	defer span.End()
	return fn()
}

func logReport(r *domain.RetentionReport) {
	log.Printf("retention: %d of %d rows kept (%.2f%%), %d columns",
		r.FinalRows, r.InitialRows, r.RetentionPct, r.Columns)
	log.Printf("dropped: %d critical, %d missing-label, %d residual",
		r.DroppedCritical, r.DroppedMissingLabel, r.DroppedResidual)
	for column, cells := range r.ImputedCells {
		log.Printf("imputed %d cells in %s", cells, column)
	}
	if r.BelowTarget() {
		log.Printf("Warning: retention %.2f%% is below the %.0f%% target",
			r.RetentionPct, r.RetentionTarget*100)
	}
}
