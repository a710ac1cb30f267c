package model

// Candidate is the person taking the exam.
type Candidate struct {
	Name    string `json:"name" binding:"required,min=1,max=100"`
	Contact string `json:"contact" binding:"required,max=254,email"`
}

// RegisterRequest is the payload for registering the candidate.
type RegisterRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=100"`
	Contact string `json:"contact" binding:"required,max=254,email"`
}

// StartExamRequest confirms the candidate has read the instructions.
type StartExamRequest struct {
	Agreed bool `json:"agreed" binding:"required"`
}
