package model

// FinishReason records what ended the exam.
type FinishReason string

const (
	FinishReasonSubmitted      FinishReason = "submitted"
	FinishReasonTimeExpired    FinishReason = "time_expired"
	FinishReasonViolationLimit FinishReason = "violation_limit"
)

// ResultSummary is computed once when the exam finishes. It is never persisted.
type ResultSummary struct {
	Candidate        Candidate    `json:"candidate"`
	Score            int          `json:"score"`
	Total            int          `json:"total"`
	Incorrect        int          `json:"incorrect"`
	Percentage       int          `json:"percentage"`
	Passed           bool         `json:"passed"`
	TimeTakenSeconds int          `json:"time_taken_seconds"`
	ViolationCount   int          `json:"violation_count"`
	FinishReason     FinishReason `json:"finish_reason"`
}
