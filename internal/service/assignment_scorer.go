package service

import (
	"context"
	"math"
	"sort"

	"github.com/padala-next/internal/geo"
	"github.com/padala-next/internal/models"

	"golang.org/x/sync/errgroup"
)

// 评分权重：距离 50%，评分 30%，经验 20%
const (
	weightProximity  = 0.5
	weightRating     = 0.3
	weightExperience = 0.2

	defaultScoreConcurrency = 8
)

// ScoredCandidate 候选骑手评分结果
type ScoredCandidate struct {
	Driver          models.Driver `json:"driver"`
	DistanceKm      float64       `json:"distance_km"`
	ETAMin          int           `json:"eta_min"`
	ProximityScore  float64       `json:"proximity_score"`
	RatingScore     float64       `json:"rating_score"`
	ExperienceScore float64       `json:"experience_score"`
	Score           float64       `json:"score"`
	RouteFallback   bool          `json:"route_fallback"`
}

// AssignmentScorer 候选骑手打分
type AssignmentScorer struct {
	calc        *geo.Calculator
	concurrency int
}

// NewAssignmentScorer 创建打分器，concurrency 为同时进行的路线查询上限
func NewAssignmentScorer(calc *geo.Calculator, concurrency int) *AssignmentScorer {
	if concurrency <= 0 {
		concurrency = defaultScoreConcurrency
	}
	return &AssignmentScorer{calc: calc, concurrency: concurrency}
}

// ScoreComponents 按距离、评分、完成单数计算各项得分与加权总分
func ScoreComponents(distanceKm, rating float64, totalDeliveries int) (proximity, ratingScore, experience, total float64) {
	proximity = math.Max(0, 100-distanceKm*10)
	ratingScore = math.Min(math.Max(rating, 0), 5) / 5 * 100
	experience = math.Min(100, math.Max(float64(totalDeliveries), 0)/100*100)
	total = weightProximity*proximity + weightRating*ratingScore + weightExperience*experience
	return proximity, ratingScore, experience, total
}

// Score 计算单个骑手到取餐点的评分
func (s *AssignmentScorer) Score(ctx context.Context, driver models.Driver, origin geo.Point) ScoredCandidate {
	if !driver.HasLocation() {
		// 无坐标的骑手距离分记 0
		_, rating, experience, _ := ScoreComponents(0, driver.Rating, driver.TotalDeliveries)
		return ScoredCandidate{
			Driver:          driver,
			RatingScore:     rating,
			ExperienceScore: experience,
			Score:           weightRating*rating + weightExperience*experience,
			RouteFallback:   true,
		}
	}
	route := s.calc.Route(ctx, geo.Point{Lat: *driver.CurrentLat, Lng: *driver.CurrentLng}, origin)
	proximity, rating, experience, total := ScoreComponents(route.DistanceKm, driver.Rating, driver.TotalDeliveries)
	return ScoredCandidate{
		Driver:          driver,
		DistanceKm:      route.DistanceKm,
		ETAMin:          route.DurationMin,
		ProximityScore:  proximity,
		RatingScore:     rating,
		ExperienceScore: experience,
		Score:           total,
		RouteFallback:   route.Fallback,
	}
}

// ScoreAll 并发为全部候选打分，结果顺序与输入一致
func (s *AssignmentScorer) ScoreAll(ctx context.Context, drivers []models.Driver, origin geo.Point) ([]ScoredCandidate, error) {
	scored := make([]ScoredCandidate, len(drivers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range drivers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scored[i] = s.Score(gctx, drivers[i], origin)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scored, nil
}

// Rank 按总分降序排列，同分保持输入顺序
func Rank(scored []ScoredCandidate) []ScoredCandidate {
	ranked := make([]ScoredCandidate, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// SelectBest 选出总分最高的候选，同分取靠前者
func SelectBest(scored []ScoredCandidate) (ScoredCandidate, bool) {
	if len(scored) == 0 {
		return ScoredCandidate{}, false
	}
	best := scored[0]
	for _, candidate := range scored[1:] {
		if candidate.Score > best.Score {
			best = candidate
		}
	}
	return best, true
}
