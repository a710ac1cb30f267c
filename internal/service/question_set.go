package service

import (
	"math/rand"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stemsi/exstem-proctor/internal/model"
)

// NewQuestionSet returns a uniformly random permutation of bank drawn from rng.
// The bank itself is left untouched.
func NewQuestionSet(bank []model.Question, rng *rand.Rand) ([]model.Question, error) {
	if len(bank) == 0 {
		return nil, errors.Wrap(ErrInvalidConfiguration, "question bank is empty")
	}

	set := cloneQuestions(bank)
	// Fisher-Yates.
	for i := len(set) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		set[i], set[j] = set[j], set[i]
	}
	return set, nil
}

// ValidateBank reports every structural problem in bank at once.
func ValidateBank(bank []model.Question) error {
	if len(bank) == 0 {
		return errors.Wrap(ErrInvalidConfiguration, "question bank is empty")
	}

	var result *multierror.Error
	seen := make(map[int]struct{}, len(bank))
	for i, q := range bank {
		if err := validateQuestion(q); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "question #%d", i+1))
		}
		if _, dup := seen[q.ID]; dup {
			result = multierror.Append(result, errors.Wrapf(ErrInvalidConfiguration, "question #%d: duplicate id %d", i+1, q.ID))
		}
		seen[q.ID] = struct{}{}
	}
	return result.ErrorOrNil()
}

func validateQuestion(q model.Question) error {
	switch {
	case strings.TrimSpace(q.Prompt) == "":
		return errors.Wrapf(ErrInvalidConfiguration, "id %d: empty prompt", q.ID)
	case len(q.Options) < 2:
		return errors.Wrapf(ErrInvalidConfiguration, "id %d: needs at least two options", q.ID)
	case q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options):
		return errors.Wrapf(ErrInvalidConfiguration, "id %d: correct option %d out of range", q.ID, q.CorrectOptionIndex)
	}
	return nil
}

func cloneQuestions(in []model.Question) []model.Question {
	out := make([]model.Question, len(in))
	for i, q := range in {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

func findQuestion(questions []model.Question, id int) (model.Question, bool) {
	for _, q := range questions {
		if q.ID == id {
			return q, true
		}
	}
	return model.Question{}, false
}
