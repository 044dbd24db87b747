package answer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/askuser/internal/errors"
)

// QuestionFile is the document form of a question set. A bare list of
// questions is accepted as well.
type QuestionFile struct {
	Questions []Question `json:"questions" yaml:"questions"`
}

// ParseQuestions decodes a YAML or JSON question document.
func ParseQuestions(data []byte) ([]Question, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.NewValidationError("question file is empty").WithCause(errors.ErrInvalidInput)
	}

	questions, err := decodeQuestions(data)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, errors.NewValidationError("question file has no questions").WithCause(errors.ErrInvalidInput)
	}
	return questions, nil
}

// decodeQuestions reads JSON documents with encoding/json, since tab
// indentation is not valid YAML, and everything else as YAML.
func decodeQuestions(data []byte) ([]Question, error) {
	switch data[0] {
	case '[':
		var questions []Question
		if err := json.Unmarshal(data, &questions); err != nil {
			return nil, fmt.Errorf("parsing question file: %w", err)
		}
		return questions, nil
	case '{':
		var file QuestionFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parsing question file: %w", err)
		}
		return file.Questions, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parsing question file: %w", err)
	}

	var questions []Question
	root := &node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&questions); err != nil {
			return nil, fmt.Errorf("parsing question file: %w", err)
		}
	case yaml.MappingNode:
		var file QuestionFile
		if err := root.Decode(&file); err != nil {
			return nil, fmt.Errorf("parsing question file: %w", err)
		}
		questions = file.Questions
	default:
		return nil, errors.NewValidationError("question file must hold a list of questions").WithCause(errors.ErrInvalidInput)
	}
	return questions, nil
}

// ReadQuestions decodes a question document from r.
func ReadQuestions(r io.Reader) ([]Question, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading questions: %w", err)
	}
	return ParseQuestions(data)
}

// LoadQuestionFile reads a question document from path. "-" reads stdin.
func LoadQuestionFile(path string) ([]Question, error) {
	if path == "-" {
		return ReadQuestions(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question file: %w", err)
	}
	return ParseQuestions(data)
}
