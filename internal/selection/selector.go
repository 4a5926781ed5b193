package selection

import (
	"math"
	"math/rand"
	"time"

	"diagnosis-service/internal/models"
)

// Selector performs weighted random selection among candidate items.
// Items close to the target difficulty weigh more, and items probing an
// uncovered knowledge point always beat repeats.
type Selector struct {
	rand *rand.Rand
}

func NewSelector() *Selector {
	return &Selector{
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// TargetDifficulty maps an ability estimate to the preferred item
// difficulty. Ability 0 anchors the scale midpoint; the offset rounds
// half away from zero so the boundary abilities reach 1 and 5.
func TargetDifficulty(ability float64) int {
	offset := math.Round(ability * 0.5)
	return models.ClampDifficulty(3 + int(offset))
}

// Pick selects up to criteria.Count items from the candidates. Items on
// uncovered knowledge points are drawn first; repeats only serve when
// nothing new is left.
func (s *Selector) Pick(candidates []models.Question, criteria *Criteria) *Result {
	if criteria == nil {
		criteria = DefaultCriteria()
	}
	count := criteria.Count
	if count < 1 {
		count = 1
	}

	weighted := s.weigh(candidates, criteria)
	result := &Result{
		Questions:        []models.Question{},
		TotalCandidates:  len(weighted),
		TargetDifficulty: criteria.TargetDifficulty,
	}
	if len(weighted) == 0 {
		return result
	}

	fresh := make([]Candidate, 0, len(weighted))
	repeats := make([]Candidate, 0)
	for _, candidate := range weighted {
		if candidate.CoversNewPoint {
			fresh = append(fresh, candidate)
		} else {
			repeats = append(repeats, candidate)
		}
	}

	picked := s.weightedRandom(fresh, count)
	if len(picked) < count {
		picked = append(picked, s.weightedRandom(repeats, count-len(picked))...)
	}

	for _, candidate := range picked {
		result.Questions = append(result.Questions, candidate.Question)
	}
	return result
}

// weigh filters excluded items and attaches proximity weights.
func (s *Selector) weigh(questions []models.Question, criteria *Criteria) []Candidate {
	covered := make(map[string]bool, len(criteria.CoveredKnowledgePoints))
	for _, id := range criteria.CoveredKnowledgePoints {
		covered[id] = true
	}

	exponent := criteria.WeightExponent
	if exponent <= 0 {
		exponent = 2.0
	}

	weighted := make([]Candidate, 0, len(questions))
	for _, question := range questions {
		if s.isExcluded(question.ID, criteria.ExcludeIDs) {
			continue
		}

		gap := question.Difficulty - criteria.TargetDifficulty
		if gap < 0 {
			gap = -gap
		}

		weighted = append(weighted, Candidate{
			Question:       question,
			Weight:         s.proximityWeight(gap, exponent),
			DifficultyGap:  gap,
			CoversNewPoint: !covered[question.KnowledgePointID],
		})
	}
	return weighted
}

// proximityWeight decays polynomially with the difficulty gap; an exact
// match scores 1.
func (s *Selector) proximityWeight(gap int, exponent float64) float64 {
	return 1.0 / math.Pow(float64(gap+1), exponent)
}

// weightedRandom draws count candidates without replacement, each draw
// proportional to the remaining weights.
func (s *Selector) weightedRandom(candidates []Candidate, count int) []Candidate {
	if len(candidates) <= count {
		return candidates
	}

	selected := make([]Candidate, 0, count)
	remaining := make([]Candidate, len(candidates))
	copy(remaining, candidates)

	for i := 0; i < count && len(remaining) > 0; i++ {
		totalWeight := 0.0
		for _, candidate := range remaining {
			totalWeight += candidate.Weight
		}

		if totalWeight == 0 {
			idx := s.rand.Intn(len(remaining))
			selected = append(selected, remaining[idx])
			remaining = append(remaining[:idx], remaining[idx+1:]...)
			continue
		}

		r := s.rand.Float64() * totalWeight
		cumulative := 0.0
		for idx, candidate := range remaining {
			cumulative += candidate.Weight
			if r <= cumulative {
				selected = append(selected, candidate)
				remaining = append(remaining[:idx], remaining[idx+1:]...)
				break
			}
		}
	}

	return selected
}

func (s *Selector) isExcluded(id string, excludeIDs []string) bool {
	for _, excludeID := range excludeIDs {
		if id == excludeID {
			return true
		}
	}
	return false
}
