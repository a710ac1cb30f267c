package repository

import (
	"fmt"
	"os"

	"github.com/stemsi/exstem-proctor/internal/model"
	"gopkg.in/yaml.v3"
)

// questionBankFile is the on-disk layout of a question bank:
//
//	questions:
//	  - id: 1
//	    prompt: What does HTML stand for?
//	    options: [...]
//	    correct_option_index: 1
type questionBankFile struct {
	Questions []model.Question `yaml:"questions"`
}

// LoadQuestionBank reads a YAML question bank. An empty path yields the built-in bank.
// Structural checks are left to the caller.
func LoadQuestionBank(path string) ([]model.Question, error) {
	if path == "" {
		return model.DefaultQuestionBank(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}

	var file questionBankFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse question bank %s: %w", path, err)
	}
	return file.Questions, nil
}
