package recommend

import (
	"context"
	"time"

	"github.com/okian/vireo/internal/domain/model"
	"github.com/okian/vireo/pkg/logger"
)

// Fallback serves the primary recommender's output and substitutes the
// secondary's when the primary fails. Recommenders never fall back
// implicitly; composing this type is the one sanctioned recovery path and
// every substitution is logged.
type Fallback struct {
	primary   Recommender
	secondary Recommender
	log       logger.Logger
}

// NewFallback composes a primary recommender with a secondary used on
// primary failure.
func NewFallback(primary, secondary Recommender, log logger.Logger) *Fallback {
	if log == nil {
		log = logger.Nop()
	}
	return &Fallback{primary: primary, secondary: secondary, log: log}
}

// Name identifies the composition.
func (f *Fallback) Name() string {
	return f.primary.Name() + "+fallback:" + f.secondary.Name()
}

// Recommend tries the primary, then the secondary.
func (f *Fallback) Recommend(ctx context.Context, area model.TargetArea, date time.Time, filter CodeSet) ([]model.Recommendation, error) {
	recs, err := f.primary.Recommend(ctx, area, date, filter)
	if err == nil {
		return recs, nil
	}
	f.log.Warn(ctx, "primary recommender failed; using fallback",
		logger.String("primary", f.primary.Name()),
		logger.String("fallback", f.secondary.Name()),
		logger.Error(err),
	)
	return f.secondary.Recommend(ctx, area, date, filter)
}

// RecommendFromLifeList tries the primary, then the secondary.
func (f *Fallback) RecommendFromLifeList(ctx context.Context, area model.TargetArea, date time.Time, lifeList model.LifeList) ([]model.Recommendation, error) {
	recs, err := f.primary.RecommendFromLifeList(ctx, area, date, lifeList)
	if err == nil {
		return recs, nil
	}
	f.log.Warn(ctx, "primary recommender failed; using fallback",
		logger.String("primary", f.primary.Name()),
		logger.String("fallback", f.secondary.Name()),
		logger.Error(err),
	)
	return f.secondary.RecommendFromLifeList(ctx, area, date, lifeList)
}
