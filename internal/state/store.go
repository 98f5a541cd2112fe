// Package state holds the client's topics, questions, FAQs, settings and tag colors, and persists them to a
// key-value medium after every mutation.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/myrjola/faqforge/internal/ai"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/models"
	"log/slog"
	"slices"
	"sync"
)

const (
	keyTopics        = "topics"
	keyQuestions     = "questions"
	keyFAQs          = "faqs"
	keyUsedTopics    = "usedTopics"
	keyActiveTopics  = "activeTopics"
	keyModelSettings = "modelSettings"
	keyTagColorMap   = "tagColorMap"
	keySessionCookie = "sessionCookie"

	legacyKeyTopics       = "keywords"
	legacyKeyUsedTopics   = "usedKeywords"
	legacyKeyActiveTopics = "activeKeywords"
)

var (
	ErrCorruptState   = errors.NewSentinel("corrupt persisted state")
	ErrTopicNotFound  = errors.NewSentinel("topic not found")
	ErrDuplicateTopic = errors.NewSentinel("topic already exists")
	ErrInvalidEntry   = errors.NewSentinel("invalid entry")
)

// Store is the client's single authoritative state. It is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	kv     KV
	logger *slog.Logger

	topics        []models.Topic
	questions     []models.Question
	faqs          []models.FAQ
	used          []string
	active        []string
	settings      ModelSettings
	tagColors     [][2]string
	sessionCookie string
}

// Open restores a Store from kv.
func Open(ctx context.Context, kv KV, logger *slog.Logger) (*Store, error) {
	s := &Store{
		mu:            sync.Mutex{},
		kv:            kv,
		logger:        logger,
		topics:        []models.Topic{},
		questions:     []models.Question{},
		faqs:          []models.FAQ{},
		used:          []string{},
		active:        []string{},
		settings:      Defaults(),
		tagColors:     [][2]string{},
		sessionCookie: "",
	}
	if err := s.Restore(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Restore replaces the in-memory state with the persisted one.
//
// Each key is read independently and an absent key yields an empty collection. Keyword-era keys are read when the
// current keys are absent.
func (s *Store) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		topics    []models.Topic
		questions []models.Question
		faqs      []models.FAQ
		used      []string
		active    []string
		pairs     [][]string
		cookie    []byte
	)
	if err := s.load(ctx, &topics, keyTopics, legacyKeyTopics); err != nil {
		return err
	}
	if err := s.load(ctx, &questions, keyQuestions); err != nil {
		return err
	}
	if err := s.load(ctx, &faqs, keyFAQs); err != nil {
		return err
	}
	if err := s.load(ctx, &used, keyUsedTopics, legacyKeyUsedTopics); err != nil {
		return err
	}
	if err := s.load(ctx, &active, keyActiveTopics, legacyKeyActiveTopics); err != nil {
		return err
	}
	if err := s.load(ctx, &pairs, keyTagColorMap); err != nil {
		return err
	}

	settings := Defaults()
	if err := s.load(ctx, &settings, keyModelSettings); err != nil {
		return err
	}
	settings.fillBlanks(ctx, s.logger)

	cookie, ok, err := s.kv.Get(ctx, keySessionCookie)
	if err != nil {
		return errors.Wrap(err, "get session cookie")
	}

	s.topics = nonNil(topics)
	s.questions = nonNil(questions)
	s.faqs = nonNil(faqs)
	s.used = nonNil(used)
	s.active = nonNil(active)
	s.settings = settings
	s.sessionCookie = ""
	if ok {
		s.sessionCookie = string(cookie)
	}
	s.tagColors = [][2]string{}
	for _, pair := range pairs {
		if len(pair) != 2 { //nolint:mnd // tag and class
			return errors.Wrap(ErrCorruptState, "tag color entry is not a pair", slog.Any("entry", pair))
		}
		tag := models.NormalizeTag(pair[0])
		if s.colorIndex(tag) == -1 {
			s.tagColors = append(s.tagColors, [2]string{tag, pair[1]})
		}
	}
	for i := range s.topics {
		s.topics[i].SmartTags = normalizeTags(s.topics[i].SmartTags)
		s.assignColors(s.topics[i].SmartTags)
	}
	return nil
}

// load decodes the first present key into v and leaves v untouched when none is present.
func (s *Store) load(ctx context.Context, v any, keys ...string) error {
	for _, key := range keys {
		raw, ok, err := s.kv.Get(ctx, key)
		if err != nil {
			return errors.Wrap(err, "get key", slog.String("key", key))
		}
		if !ok {
			continue
		}
		if err = json.Unmarshal(raw, v); err != nil {
			return errors.Wrap(ErrCorruptState, err.Error(), slog.String("key", key))
		}
		if key != keys[0] {
			s.logger.LogAttrs(ctx, slog.LevelInfo, "migrated legacy key",
				slog.String("from", key), slog.String("to", keys[0]))
		}
		return nil
	}
	return nil
}

// Save persists every collection under its own key. Tags are normalized first.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx)
}

func (s *Store) save(ctx context.Context) error {
	for i := range s.topics {
		s.topics[i].SmartTags = normalizeTags(s.topics[i].SmartTags)
	}
	collections := map[string]any{
		keyTopics:        s.topics,
		keyQuestions:     s.questions,
		keyFAQs:          s.faqs,
		keyUsedTopics:    s.used,
		keyActiveTopics:  s.active,
		keyModelSettings: s.settings,
		keyTagColorMap:   s.tagColors,
	}
	values := make(map[string][]byte, len(collections)+1)
	for key, v := range collections {
		raw, err := json.Marshal(v)
		if err != nil {
			return errors.Wrap(err, "marshal", slog.String("key", key))
		}
		values[key] = raw
	}
	values[keySessionCookie] = []byte(s.sessionCookie)
	if err := s.kv.PutAll(ctx, values); err != nil {
		return errors.Wrap(err, "save state")
	}
	return nil
}

// snapshot is a deep copy of the in-memory state.
type snapshot struct {
	topics        []models.Topic
	questions     []models.Question
	faqs          []models.FAQ
	used          []string
	active        []string
	settings      ModelSettings
	tagColors     [][2]string
	sessionCookie string
}

func (s *Store) snapshot() snapshot {
	topics := make([]models.Topic, len(s.topics))
	for i, t := range s.topics {
		t.SmartTags = slices.Clone(t.SmartTags)
		topics[i] = t
	}
	return snapshot{
		topics:        topics,
		questions:     slices.Clone(s.questions),
		faqs:          slices.Clone(s.faqs),
		used:          slices.Clone(s.used),
		active:        slices.Clone(s.active),
		settings:      s.settings,
		tagColors:     slices.Clone(s.tagColors),
		sessionCookie: s.sessionCookie,
	}
}

// commit persists the mutated state and puts back before when persisting fails.
func (s *Store) commit(ctx context.Context, before snapshot) error {
	if err := s.save(ctx); err != nil {
		s.topics = before.topics
		s.questions = before.questions
		s.faqs = before.faqs
		s.used = before.used
		s.active = before.active
		s.settings = before.settings
		s.tagColors = before.tagColors
		s.sessionCookie = before.sessionCookie
		return err
	}
	return nil
}

// Settings returns the model selection.
func (s *Store) Settings() ModelSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetModel selects model for provider at step. The model must be one of AllowedModels.
func (s *Store) SetModel(ctx context.Context, step, provider, model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := ai.ParseProvider(provider)
	if err != nil {
		return errors.Wrap(ErrUnknownSetting, "unknown provider", slog.String("provider", provider))
	}
	before := s.snapshot()
	if err = s.settings.Set(Step(step), p, model); err != nil {
		return err
	}
	return s.commit(ctx, before)
}

// TagColor returns the color class of a tag, or an empty string for a tag never seen.
func (s *Store) TagColor(tag string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.colorIndex(models.NormalizeTag(tag)); i != -1 {
		return s.tagColors[i][1]
	}
	return ""
}

// SessionCookie returns the server session cookie value shared between client invocations.
func (s *Store) SessionCookie() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionCookie
}

func (s *Store) SetSessionCookie(ctx context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionCookie == value {
		return nil
	}
	before := s.snapshot()
	s.sessionCookie = value
	return s.commit(ctx, before)
}

const colorClassCount = 5

func (s *Store) colorIndex(tag string) int {
	return slices.IndexFunc(s.tagColors, func(pair [2]string) bool { return pair[0] == tag })
}

// assignColors gives every tag seen for the first time the next color class.
func (s *Store) assignColors(tags []string) {
	for _, tag := range tags {
		if s.colorIndex(tag) == -1 {
			class := fmt.Sprintf("tag-color-%d", len(s.tagColors)%colorClassCount+1)
			s.tagColors = append(s.tagColors, [2]string{tag, class})
		}
	}
}

// normalizeTags normalizes every tag and drops blanks and duplicates.
func normalizeTags(tags []string) []string {
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = models.NormalizeTag(tag); tag != "" && !slices.Contains(result, tag) {
			result = append(result, tag)
		}
	}
	return result
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
