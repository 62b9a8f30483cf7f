package roomstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func reviewedSubmission(participantID, name string, answers FieldSet, marks FieldMarks) Submission {
	return Submission{
		ParticipantID:   participantID,
		ParticipantName: name,
		Answers:         answers,
		Review:          &Review{Marks: marks},
	}
}

func TestRecomputeFixed10_TenPointsPerCorrectField(t *testing.T) {
	subs := []Submission{
		reviewedSubmission("a", "Alice", FieldSet{Name: "Anna", Animal: "Ant"}, FieldMarks{Name: true, Animal: true}),
		reviewedSubmission("b", "Bob", FieldSet{Name: "Ben"}, FieldMarks{Name: true}),
	}
	recomputeScores(ScoringFixed10, subs)

	assert.Equal(t, 20.0, subs[0].Review.Scores.Total)
	assert.Equal(t, 10.0, subs[0].Review.Scores.Name)
	assert.Equal(t, 10.0, subs[0].Review.Scores.Animal)
	assert.Equal(t, 10.0, subs[1].Review.Scores.Total)
}

func TestRecomputeShared10_SplitsAmongIdenticalAnswers(t *testing.T) {
	subs := []Submission{
		reviewedSubmission("a", "Alice", FieldSet{Animal: "Ant"}, FieldMarks{Animal: true}),
		reviewedSubmission("b", "Bob", FieldSet{Animal: "ant"}, FieldMarks{Animal: true}),
		reviewedSubmission("c", "Carol", FieldSet{Animal: "Alligator"}, FieldMarks{Animal: true}),
	}
	recomputeScores(ScoringShared10, subs)

	assert.Equal(t, 5.0, subs[0].Review.Scores.Animal, "Ant/ant share the 10 points two ways")
	assert.Equal(t, 5.0, subs[1].Review.Scores.Animal)
	assert.Equal(t, 10.0, subs[2].Review.Scores.Animal, "Alligator has no duplicate, keeps the full 10")
}

func TestRecomputeShared10_UnmarkedFieldScoresZero(t *testing.T) {
	subs := []Submission{
		reviewedSubmission("a", "Alice", FieldSet{Animal: "Ant"}, FieldMarks{Animal: false}),
	}
	recomputeScores(ScoringShared10, subs)
	assert.Equal(t, 0.0, subs[0].Review.Scores.Animal)
	assert.Equal(t, 0.0, subs[0].Review.Scores.Total)
}

func TestRecomputeShared10_ThreeWaySplitRoundsToTwoDecimals(t *testing.T) {
	subs := []Submission{
		reviewedSubmission("a", "Alice", FieldSet{Food: "Pizza"}, FieldMarks{Food: true}),
		reviewedSubmission("b", "Bob", FieldSet{Food: "pizza"}, FieldMarks{Food: true}),
		reviewedSubmission("c", "Carol", FieldSet{Food: "PIZZA"}, FieldMarks{Food: true}),
	}
	recomputeScores(ScoringShared10, subs)
	assert.Equal(t, 3.33, subs[0].Review.Scores.Food)
	assert.Equal(t, 3.33, subs[0].Review.Scores.Total)
}

func TestNormalize_TrimsCollapsesAndTruncates(t *testing.T) {
	assert.Equal(t, "hello world", normalize("  hello   world  "))
	long := ""
	for i := 0; i < 60; i++ {
		long += "x"
	}
	assert.Len(t, normalize(long), maxFieldLength)
}

func TestNormalizeKey_IsCaseInsensitive(t *testing.T) {
	assert.Equal(t, normalizeKey("Alice"), normalizeKey("  ALICE "))
}
