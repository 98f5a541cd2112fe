package models

import (
	"encoding/json"
	"github.com/myrjola/faqforge/internal/errors"
	"log/slog"
	"regexp"
	"strings"
)

// Origin tells how a topic came to be.
type Origin string

const (
	OriginManual    Origin = "manual"
	OriginVariation Origin = "variation"
)

var ErrInvalidTopic = errors.NewSentinel("invalid topic")

// Topic is a subject around which questions are generated. Value is unique within a store.
type Topic struct {
	Value       string   `json:"value"`
	Origin      Origin   `json:"origin"`
	ParentTopic *string  `json:"parentTopic"`
	SmartTags   []string `json:"smartTags"`
}

// NewTopic creates a manually entered topic.
func NewTopic(value string) Topic {
	return Topic{
		Value:       value,
		Origin:      OriginManual,
		ParentTopic: nil,
		SmartTags:   []string{},
	}
}

// NewVariation creates a topic generated as a variation of parent.
func NewVariation(value, parent string) Topic {
	return Topic{
		Value:       value,
		Origin:      OriginVariation,
		ParentTopic: &parent,
		SmartTags:   []string{},
	}
}

// storedTopic covers both the current and the keyword-era field names.
type storedTopic struct {
	Value         string   `json:"value"`
	Origin        Origin   `json:"origin"`
	ParentTopic   *string  `json:"parentTopic"`
	ParentKeyword *string  `json:"parentKeyword"`
	SmartTags     []string `json:"smartTags"`
}

// UnmarshalJSON accepts a bare string from the earliest persisted format as well as the object form.
func (t *Topic) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		*t = NewTopic(bare)
		return nil
	}

	var stored storedTopic
	if err := json.Unmarshal(data, &stored); err != nil {
		return errors.Wrap(ErrInvalidTopic, "decode topic", slog.String("raw", string(data)))
	}
	if stored.Value == "" {
		return errors.Wrap(ErrInvalidTopic, "topic without value")
	}
	parent := stored.ParentTopic
	if parent == nil {
		parent = stored.ParentKeyword
	}
	origin := stored.Origin
	if origin == "" {
		origin = OriginManual
	}
	tags := stored.SmartTags
	if tags == nil {
		tags = []string{}
	}
	*t = Topic{
		Value:       stored.Value,
		Origin:      origin,
		ParentTopic: parent,
		SmartTags:   tags,
	}
	return nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeTag trims the tag and replaces whitespace runs with underscores. It is idempotent.
func NormalizeTag(tag string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(tag), "_")
}
