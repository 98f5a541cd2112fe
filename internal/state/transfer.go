package state

import (
	"context"
	"encoding/json"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/models"
	"io"
	"log/slog"
	"slices"
	"strings"
)

// exportedQuestion leaves out ids and grouping, which are local to a store.
type exportedQuestion struct {
	Question string `json:"question"`
	Source   string `json:"source"`
	Category string `json:"category"`
	Topic    string `json:"topic"`
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "encode export")
	}
	return nil
}

// ExportTopics writes every topic as an indented JSON array.
func (s *Store) ExportTopics(w io.Writer) error {
	return writeIndented(w, s.Topics())
}

// ExportQuestions writes every question as an indented JSON array without ids.
func (s *Store) ExportQuestions(w io.Writer) error {
	questions := s.Questions()
	exported := make([]exportedQuestion, len(questions))
	for i, q := range questions {
		exported[i] = exportedQuestion{Question: q.Question, Source: q.Source, Category: q.Category, Topic: q.Topic}
	}
	return writeIndented(w, exported)
}

// ImportTopics adds the topics of an exported array whose value is not present yet. It returns the number added.
func (s *Store) ImportTopics(ctx context.Context, r io.Reader) (int, error) {
	var topics []models.Topic
	if err := json.NewDecoder(r).Decode(&topics); err != nil {
		return 0, errors.Wrap(ErrInvalidEntry, "decode topics: "+err.Error())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.snapshot()
	added := 0
	for _, t := range topics {
		t.Value = strings.TrimSpace(t.Value)
		if t.Value == "" || s.topicIndex(t.Value) != -1 {
			continue
		}
		t.SmartTags = normalizeTags(t.SmartTags)
		s.assignColors(t.SmartTags)
		s.topics = append(s.topics, t)
		added++
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "imported topics", slog.Int("added", added), slog.Int("total", len(topics)))
	if added == 0 {
		return 0, nil
	}
	if err := s.commit(ctx, before); err != nil {
		return 0, err
	}
	return added, nil
}

// ImportQuestions adds the questions of an exported array whose text is not present yet, with fresh ids. It
// returns the number added.
func (s *Store) ImportQuestions(ctx context.Context, r io.Reader) (int, error) {
	var questions []models.Question
	if err := json.NewDecoder(r).Decode(&questions); err != nil {
		return 0, errors.Wrap(ErrInvalidEntry, "decode questions: "+err.Error())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.snapshot()
	next := s.nextQuestionID()
	added := 0
	for _, q := range questions {
		q.Question = strings.TrimSpace(q.Question)
		if q.Question == "" || slices.ContainsFunc(s.questions, func(existing models.Question) bool {
			return existing.Question == q.Question
		}) {
			continue
		}
		q.ID = next
		q.GroupInfo = nil
		next++
		s.questions = append(s.questions, q)
		added++
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "imported questions", slog.Int("added", added),
		slog.Int("total", len(questions)))
	if added == 0 {
		return 0, nil
	}
	if err := s.commit(ctx, before); err != nil {
		return 0, err
	}
	return added, nil
}
