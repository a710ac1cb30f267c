package model

// Question is a single multiple-choice question from the static bank.
type Question struct {
	ID                 int      `json:"id" yaml:"id"`
	Prompt             string   `json:"prompt" yaml:"prompt"`
	Options            []string `json:"options" yaml:"options"`
	CorrectOptionIndex int      `json:"correct_option_index" yaml:"correct_option_index"`
}

// QuestionView is a question as rendered to the candidate (no answer key).
type QuestionView struct {
	ID            int      `json:"id"`
	Number        int      `json:"number"`
	Total         int      `json:"total"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	SelectedIndex *int     `json:"selected_index,omitempty"`
	IsLast        bool     `json:"is_last"`
	CanAdvance    bool     `json:"can_advance"`
}

// SelectAnswerRequest is the payload for answering a question.
type SelectAnswerRequest struct {
	QuestionID  *int `json:"question_id" binding:"required"`
	OptionIndex *int `json:"option_index" binding:"required,min=0"`
}
