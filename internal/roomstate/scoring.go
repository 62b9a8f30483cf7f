package roomstate

import "math"

// fieldKeys is the fixed iteration order shared by FieldSet, FieldMarks and
// FieldScores so every engine walks fields identically.
var fieldKeys = [5]string{"name", "animal", "place", "thing", "food"}

// recomputeScores recomputes review.Scores for every reviewed submission in
// a round, using mode. It is called from within a transition whenever any
// review changes, per spec.md §4.2 ("Recomputation runs over the whole
// round every time any review changes"). Submissions without a Review are
// left untouched.
func recomputeScores(mode ScoringMode, submissions []Submission) {
	switch mode {
	case ScoringShared10:
		recomputeShared10(submissions)
	default:
		recomputeFixed10(submissions)
	}
}

func recomputeFixed10(submissions []Submission) {
	for i := range submissions {
		rev := submissions[i].Review
		if rev == nil {
			continue
		}
		var scores FieldScores
		total := 0.0
		for _, key := range fieldKeys {
			v := 0.0
			if rev.Marks.get(key) {
				v = 10
			}
			setFieldScore(&scores, key, v)
			total += v
		}
		scores.Total = total
		rev.Scores = scores
	}
}

func recomputeShared10(submissions []Submission) {
	for _, key := range fieldKeys {
		// groupCount[normalisedAnswer] = number of reviewed-correct
		// submissions sharing that normalised answer for this field.
		groupCount := map[string]int{}
		for i := range submissions {
			rev := submissions[i].Review
			if rev == nil || !rev.Marks.get(key) {
				continue
			}
			norm := normalizeKey(submissions[i].Answers.get(key))
			if norm == "" {
				continue
			}
			groupCount[norm]++
		}
		for i := range submissions {
			rev := submissions[i].Review
			if rev == nil {
				continue
			}
			v := 0.0
			if rev.Marks.get(key) {
				norm := normalizeKey(submissions[i].Answers.get(key))
				if norm != "" {
					k := groupCount[norm]
					if k > 0 {
						v = round2(10 / float64(k))
					}
				}
			}
			setFieldScore(&rev.Scores, key, v)
		}
	}
	for i := range submissions {
		rev := submissions[i].Review
		if rev == nil {
			continue
		}
		total := rev.Scores.Name + rev.Scores.Animal + rev.Scores.Place + rev.Scores.Thing + rev.Scores.Food
		rev.Scores.Total = round2(total)
	}
}

func setFieldScore(s *FieldScores, key string, v float64) {
	switch key {
	case "name":
		s.Name = v
	case "animal":
		s.Animal = v
	case "place":
		s.Place = v
	case "thing":
		s.Thing = v
	case "food":
		s.Food = v
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
