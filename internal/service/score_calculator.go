package service

import "github.com/stemsi/exstem-proctor/internal/model"

// ScoreBreakdown is the raw tally for a finished question set.
type ScoreBreakdown struct {
	Correct int
	Total   int
}

// CalculateScore counts questions whose recorded answer equals the correct option.
// Unanswered questions count as incorrect.
func CalculateScore(questions []model.Question, answers map[int]int) ScoreBreakdown {
	b := ScoreBreakdown{Total: len(questions)}
	for _, q := range questions {
		if picked, ok := answers[q.ID]; ok && picked == q.CorrectOptionIndex {
			b.Correct++
		}
	}
	return b
}

// Percentage is 100*correct/total rounded half up, or 0 for an empty set.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

// Summarize builds the result shown to the candidate.
func Summarize(
	candidate model.Candidate,
	breakdown ScoreBreakdown,
	passingPercentage int,
	timeTakenSeconds int,
	violationCount int,
	reason model.FinishReason,
) model.ResultSummary {
	pct := Percentage(breakdown.Correct, breakdown.Total)
	if timeTakenSeconds < 0 {
		timeTakenSeconds = 0
	}
	return model.ResultSummary{
		Candidate:        candidate,
		Score:            breakdown.Correct,
		Total:            breakdown.Total,
		Incorrect:        breakdown.Total - breakdown.Correct,
		Percentage:       pct,
		Passed:           pct >= passingPercentage,
		TimeTakenSeconds: timeTakenSeconds,
		ViolationCount:   violationCount,
		FinishReason:     reason,
	}
}
