package state

import (
	"context"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/models"
	"log/slog"
	"slices"
	"strings"
)

// Questions returns a copy of every question.
func (s *Store) Questions() []models.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.questions)
}

// NextQuestionID returns one more than the largest question id, or 1 for an empty store.
func (s *Store) NextQuestionID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextQuestionID()
}

func (s *Store) nextQuestionID() int {
	next := 1
	for _, q := range s.questions {
		next = max(next, q.ID+1)
	}
	return next
}

// AppendQuestions adds questions whose ids were already allocated by the caller.
func (s *Store) AppendQuestions(ctx context.Context, questions []models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.snapshot()
	s.questions = append(s.questions, questions...)
	return s.commit(ctx, before)
}

// ReplaceQuestions swaps the whole collection, as done after a smart sort.
func (s *Store) ReplaceQuestions(ctx context.Context, questions []models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.snapshot()
	s.questions = nonNil(slices.Clone(questions))
	return s.commit(ctx, before)
}

// AddManualQuestion creates a question typed in by the user.
func (s *Store) AddManualQuestion(ctx context.Context, topic, category, text string) (models.Question, error) {
	topic, category, text = strings.TrimSpace(topic), strings.TrimSpace(category), strings.TrimSpace(text)
	if topic == "" || category == "" || text == "" {
		return models.Question{}, errors.Wrap(ErrInvalidEntry, "question, category and topic are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	q := models.Question{
		ID:        s.nextQuestionID(),
		Topic:     topic,
		Source:    models.SourceManual,
		Category:  category,
		Question:  text,
		GroupInfo: nil,
	}
	before := s.snapshot()
	s.questions = append(s.questions, q)
	if err := s.commit(ctx, before); err != nil {
		return models.Question{}, err
	}
	return q, nil
}

// DeleteQuestions removes the questions with the given ids and returns how many were removed.
func (s *Store) DeleteQuestions(ctx context.Context, ids []int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.snapshot()
	s.questions = slices.DeleteFunc(s.questions, func(q models.Question) bool { return slices.Contains(ids, q.ID) })
	removed := len(before.questions) - len(s.questions)
	if removed == 0 {
		return 0, nil
	}
	if err := s.commit(ctx, before); err != nil {
		return 0, err
	}
	return removed, nil
}

// FAQs returns a copy of every FAQ entry.
func (s *Store) FAQs() []models.FAQ {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.faqs)
}

// ReplaceFAQs swaps the whole FAQ collection.
func (s *Store) ReplaceFAQs(ctx context.Context, faqs []models.FAQ) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.snapshot()
	s.faqs = nonNil(slices.Clone(faqs))
	return s.commit(ctx, before)
}

// AddManualFAQ creates an FAQ entry typed in by the user.
func (s *Store) AddManualFAQ(ctx context.Context, topic, question, answer string) (models.FAQ, error) {
	topic, question, answer = strings.TrimSpace(topic), strings.TrimSpace(question), strings.TrimSpace(answer)
	if topic == "" || question == "" || answer == "" {
		return models.FAQ{}, errors.Wrap(ErrInvalidEntry, "question, answer and topic are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := 1
	for _, f := range s.faqs {
		next = max(next, f.ID+1)
	}
	f := models.FAQ{ID: next, Topic: topic, Question: question, Answer: answer}
	before := s.snapshot()
	s.faqs = append(s.faqs, f)
	if err := s.commit(ctx, before); err != nil {
		return models.FAQ{}, err
	}
	return f, nil
}

// DeleteFAQs removes the FAQ entries with the given ids and returns how many were removed.
func (s *Store) DeleteFAQs(ctx context.Context, ids []int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.snapshot()
	s.faqs = slices.DeleteFunc(s.faqs, func(f models.FAQ) bool { return slices.Contains(ids, f.ID) })
	removed := len(before.faqs) - len(s.faqs)
	if removed == 0 {
		return 0, nil
	}
	if err := s.commit(ctx, before); err != nil {
		return 0, err
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, "deleted faqs", slog.Int("count", removed))
	return removed, nil
}
