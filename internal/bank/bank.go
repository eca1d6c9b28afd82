package bank

import (
	"fmt"
	"strings"

	"asd-screening-service/internal/domain"
)

// DefaultID identifies the built-in twenty item bank.
const DefaultID = "aq-20"

var defaultTexts = []string{
	"I find social situations easy",
	"I prefer to do things with others rather than on my own",
	"I find it hard to make new friends",
	"I find it difficult to work out what other people are thinking or feeling",
	"I often notice small sounds when others do not",
	"I usually notice car number plates or similar strings of information",
	"Other people frequently tell me that what I've said is impolite",
	"When I'm reading a story, I can easily imagine what the characters might look like",
	"I am fascinated by dates",
	"In a social group, I can easily keep track of several different people's conversations",
	"I find social situations easy",
	"I tend to notice details that others do not",
	"I would rather go to a library than a party",
	"I find making up stories easy",
	"I find myself drawn more strongly to people than to things",
	"I tend to have very strong interests, which I get upset about if I can't pursue",
	"I enjoy social chit-chat",
	"When I talk, it isn't always easy for others to get a word in edgeways",
	"I am fascinated by numbers",
	"When I'm reading a story, I find it difficult to work out the characters' intentions",
}

// Default returns a fresh copy of the built-in bank.
func Default() domain.QuestionBank {
	questions := make([]domain.Question, 0, len(defaultTexts))
	for i, text := range defaultTexts {
		questions = append(questions, domain.Question{
			ID:      i + 1,
			Text:    text,
			Options: domain.CanonicalOptions(),
		})
	}
	return domain.QuestionBank{ID: DefaultID, Questions: questions}
}

// Validate checks the structural rules every bank must satisfy: non-empty,
// strictly increasing positive ids, non-empty text, four non-empty options.
func Validate(b domain.QuestionBank) error {
	if len(b.Questions) == 0 {
		return fmt.Errorf("%w: bank %q has no questions", domain.ErrInvalidBank, b.ID)
	}
	prev := 0
	for i, q := range b.Questions {
		if q.ID <= prev {
			return fmt.Errorf("%w: question at position %d has id %d, want > %d", domain.ErrInvalidBank, i, q.ID, prev)
		}
		prev = q.ID
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("%w: question %d has empty text", domain.ErrInvalidBank, q.ID)
		}
		if len(q.Options) != 4 {
			return fmt.Errorf("%w: question %d has %d options, want 4", domain.ErrInvalidBank, q.ID, len(q.Options))
		}
		for _, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return fmt.Errorf("%w: question %d has an empty option", domain.ErrInvalidBank, q.ID)
			}
		}
	}
	return nil
}
