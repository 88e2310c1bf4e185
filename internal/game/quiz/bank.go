// Package quiz runs trivia and riddle questions: one pending question per
// user, answered by the user's next message or failed on timeout.
package quiz

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var defaultBank []byte

// Kind is the question category.
type Kind string

const (
	KindTrivia Kind = "trivia"
	KindRiddle Kind = "riddle"
)

// Difficulty grades a riddle.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Question is one bank entry.
type Question struct {
	Kind       Kind       `yaml:"-"`
	Index      int        `yaml:"-"`
	Prompt     string     `yaml:"prompt"`
	Answer     string     `yaml:"answer"`
	Reward     int64      `yaml:"reward"`
	Category   string     `yaml:"category"`
	Difficulty Difficulty `yaml:"difficulty"`
}

// XP returns the experience granted for a correct answer.
func (q Question) XP() int64 {
	if q.Kind == KindTrivia {
		return 25
	}
	switch q.Difficulty {
	case Hard:
		return 80
	case Medium:
		return 50
	default:
		return 30
	}
}

// Matches reports whether answer is accepted for q: a case-insensitive
// substring match in either direction. Empty answers never match.
func (q Question) Matches(answer string) bool {
	got := strings.ToLower(strings.TrimSpace(answer))
	want := strings.ToLower(strings.TrimSpace(q.Answer))
	if got == "" || want == "" {
		return false
	}
	return strings.Contains(got, want) || strings.Contains(want, got)
}

// Bank holds the questions of each kind.
type Bank struct {
	Trivia  []Question `yaml:"trivia"`
	Riddles []Question `yaml:"riddles"`
}

// ParseBank decodes and validates a question bank.
func ParseBank(data []byte) (*Bank, error) {
	var b Bank
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	if len(b.Trivia) == 0 || len(b.Riddles) == 0 {
		return nil, errors.New("question bank: trivia and riddles must not be empty")
	}
	for i := range b.Trivia {
		b.Trivia[i].Kind, b.Trivia[i].Index = KindTrivia, i
	}
	for i := range b.Riddles {
		b.Riddles[i].Kind, b.Riddles[i].Index = KindRiddle, i
		switch b.Riddles[i].Difficulty {
		case Easy, Medium, Hard:
		default:
			return nil, fmt.Errorf("question bank: riddle %d has unknown difficulty %q", i, b.Riddles[i].Difficulty)
		}
	}
	for _, q := range append(append([]Question(nil), b.Trivia...), b.Riddles...) {
		if strings.TrimSpace(q.Answer) == "" || q.Reward <= 0 {
			return nil, fmt.Errorf("question bank: invalid %s %q", q.Kind, q.Prompt)
		}
	}
	return &b, nil
}

// DefaultBank returns the embedded bank. It panics if the embedded document is invalid.
func DefaultBank() *Bank {
	b, err := ParseBank(defaultBank)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Bank) questions(k Kind) []Question {
	if k == KindTrivia {
		return b.Trivia
	}
	return b.Riddles
}
