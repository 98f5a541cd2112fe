package state

import (
	"context"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/models"
	"log/slog"
	"slices"
	"strings"
)

// Topics returns a copy of every topic in insertion order.
func (s *Store) Topics() []models.Topic {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]models.Topic, len(s.topics))
	for i, t := range s.topics {
		t.SmartTags = slices.Clone(t.SmartTags)
		result[i] = t
	}
	return result
}

// HasTopic reports whether a topic with the value exists.
func (s *Store) HasTopic(value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topicIndex(value) != -1
}

func (s *Store) topicIndex(value string) int {
	return slices.IndexFunc(s.topics, func(t models.Topic) bool { return t.Value == value })
}

// AddTopic appends a new topic. Its value is trimmed and must be unique.
func (s *Store) AddTopic(ctx context.Context, topic models.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	topic.Value = strings.TrimSpace(topic.Value)
	if topic.Value == "" {
		return errors.Wrap(models.ErrInvalidTopic, "blank topic")
	}
	if s.topicIndex(topic.Value) != -1 {
		return errors.Wrap(ErrDuplicateTopic, "add topic", slog.String("topic", topic.Value))
	}
	if topic.Origin == "" {
		topic.Origin = models.OriginManual
	}
	before := s.snapshot()
	topic.SmartTags = normalizeTags(topic.SmartTags)
	s.assignColors(topic.SmartTags)
	s.topics = append(s.topics, topic)
	return s.commit(ctx, before)
}

// DeleteTopic removes a topic together with its used and active marks.
func (s *Store) DeleteTopic(ctx context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.topicIndex(value)
	if i == -1 {
		return errors.Wrap(ErrTopicNotFound, "delete topic", slog.String("topic", value))
	}
	before := s.snapshot()
	s.topics = slices.Delete(s.topics, i, i+1)
	s.used = remove(s.used, value)
	s.active = remove(s.active, value)
	return s.commit(ctx, before)
}

// SetActive marks a topic for another generation run, or clears the mark.
func (s *Store) SetActive(ctx context.Context, value string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.topicIndex(value) == -1 {
		return errors.Wrap(ErrTopicNotFound, "set active", slog.String("topic", value))
	}
	before := s.snapshot()
	if active {
		s.active = add(s.active, value)
	} else {
		s.active = remove(s.active, value)
	}
	return s.commit(ctx, before)
}

// MarkUsed records that questions were generated for the topic and clears its active mark.
func (s *Store) MarkUsed(ctx context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.snapshot()
	s.used = add(s.used, value)
	s.active = remove(s.active, value)
	return s.commit(ctx, before)
}

// IsUsed reports whether questions were already generated for the topic.
func (s *Store) IsUsed(value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.used, value)
}

// IsActive reports whether the topic is marked for another generation run.
func (s *Store) IsActive(value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.active, value)
}

// EligibleTopics lists, in insertion order, the topics that are not used yet or were reactivated.
func (s *Store) EligibleTopics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var eligible []string
	for _, t := range s.topics {
		if !slices.Contains(s.used, t.Value) || slices.Contains(s.active, t.Value) {
			eligible = append(eligible, t.Value)
		}
	}
	return eligible
}

// SetTopicTags replaces the tags of a topic.
func (s *Store) SetTopicTags(ctx context.Context, value string, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.topicIndex(value)
	if i == -1 {
		return errors.Wrap(ErrTopicNotFound, "set topic tags", slog.String("topic", value))
	}
	before := s.snapshot()
	s.topics[i].SmartTags = normalizeTags(tags)
	s.assignColors(s.topics[i].SmartTags)
	return s.commit(ctx, before)
}

// RemoveTagFromAllTopics strips the tag from every topic and forgets its color. It returns the number of topics
// changed.
func (s *Store) RemoveTagFromAllTopics(ctx context.Context, tag string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag = models.NormalizeTag(tag)
	before := s.snapshot()
	changed := 0
	for i := range s.topics {
		if j := slices.Index(s.topics[i].SmartTags, tag); j != -1 {
			s.topics[i].SmartTags = slices.Delete(s.topics[i].SmartTags, j, j+1)
			changed++
		}
	}
	colored := s.colorIndex(tag)
	if colored != -1 {
		s.tagColors = slices.Delete(s.tagColors, colored, colored+1)
	}
	if changed == 0 && colored == -1 {
		return 0, nil
	}
	if err := s.commit(ctx, before); err != nil {
		return 0, err
	}
	return changed, nil
}

// AllTags lists every tag carried by some topic in first-seen order.
func (s *Store) AllTags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tags := []string{}
	for _, t := range s.topics {
		for _, tag := range t.SmartTags {
			tags = add(tags, tag)
		}
	}
	return tags
}

// TopicsWithoutTags lists the topics that carry no tag.
func (s *Store) TopicsWithoutTags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var values []string
	for _, t := range s.topics {
		if len(t.SmartTags) == 0 {
			values = append(values, t.Value)
		}
	}
	return values
}

func add(set []string, value string) []string {
	if slices.Contains(set, value) {
		return set
	}
	return append(set, value)
}

func remove(set []string, value string) []string {
	return slices.DeleteFunc(set, func(v string) bool { return v == value })
}
