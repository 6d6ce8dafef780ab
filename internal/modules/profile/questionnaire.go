package profile

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/utils"
)

//go:embed questionnaire.yaml
var defaultQuestionnaireYAML []byte

// Option is one selectable answer of a questionnaire question
type Option struct {
	Value int    `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// Question is a single-choice question with scored options
type Question struct {
	ID      string   `yaml:"id" json:"id"`
	Text    string   `yaml:"text" json:"text"`
	Options []Option `yaml:"options" json:"options"`
}

// Questionnaire is a scored risk assessment form
type Questionnaire struct {
	Name      string     `yaml:"name" json:"name"`
	Questions []Question `yaml:"questions" json:"questions"`
}

// ParseQuestionnaire decodes and validates a YAML questionnaire definition
func ParseQuestionnaire(data []byte) (*Questionnaire, error) {
	var q Questionnaire
	if err := yaml.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("failed to parse questionnaire: %w", err)
	}

	if q.Name == "" {
		return nil, fmt.Errorf("questionnaire has no name")
	}
	if len(q.Questions) == 0 {
		return nil, fmt.Errorf("questionnaire %q has no questions", q.Name)
	}
	for _, question := range q.Questions {
		if question.ID == "" {
			return nil, fmt.Errorf("questionnaire %q has a question without id", q.Name)
		}
		if len(question.Options) < 2 {
			return nil, fmt.Errorf("question %q needs at least two options", question.ID)
		}
	}

	return &q, nil
}

// minScore returns the lowest achievable raw score
func (q *Questionnaire) minScore() int {
	total := 0
	for _, question := range q.Questions {
		lowest := question.Options[0].Value
		for _, o := range question.Options[1:] {
			if o.Value < lowest {
				lowest = o.Value
			}
		}
		total += lowest
	}
	return total
}

// maxScore returns the highest achievable raw score
func (q *Questionnaire) maxScore() int {
	total := 0
	for _, question := range q.Questions {
		highest := question.Options[0].Value
		for _, o := range question.Options[1:] {
			if o.Value > highest {
				highest = o.Value
			}
		}
		total += highest
	}
	return total
}

// Score validates the answers against the questionnaire and maps the raw sum
// to a risk level and a 0-100 tolerance score. Every question must be
// answered with one of its defined option values.
func (q *Questionnaire) Score(answers map[string]int) (domain.RiskLevel, float64, int, error) {
	if len(answers) != len(q.Questions) {
		return "", 0, 0, fmt.Errorf("expected %d answers, got %d", len(q.Questions), len(answers))
	}

	raw := 0
	for _, question := range q.Questions {
		value, ok := answers[question.ID]
		if !ok {
			return "", 0, 0, fmt.Errorf("missing answer for question %q", question.ID)
		}
		valid := false
		for _, o := range question.Options {
			if o.Value == value {
				valid = true
				break
			}
		}
		if !valid {
			return "", 0, 0, fmt.Errorf("answer %d is not an option of question %q", value, question.ID)
		}
		raw += value
	}

	min, max := q.minScore(), q.maxScore()
	span := max - min
	tolerance := 0.0
	if span > 0 {
		tolerance = utils.RoundTo(float64(raw-min)/float64(span)*100, 2)
	}

	// Band edges follow the thirds of the score range
	level := domain.RiskLevelHigh
	switch {
	case raw <= min+span/3:
		level = domain.RiskLevelLow
	case raw <= min+2*span/3:
		level = domain.RiskLevelMedium
	}

	return level, tolerance, raw, nil
}

// DefaultQuestionnaire parses the embedded risk assessment definition
func DefaultQuestionnaire() (*Questionnaire, error) {
	return ParseQuestionnaire(defaultQuestionnaireYAML)
}
