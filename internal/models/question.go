package models

import (
	"encoding/json"
)

// SourceManual is the source of questions entered by hand.
const SourceManual = "Manual"

// GroupInfo records which near-duplicates a question represents after grouping.
type GroupInfo struct {
	SimilarQuestions []string `json:"similarQuestions"`
	Explanation      string   `json:"explanation"`
}

// Question is a generated or manually entered question about a topic.
type Question struct {
	ID        int        `json:"id"`
	Topic     string     `json:"topic"`
	Source    string     `json:"source"`
	Category  string     `json:"category"`
	Question  string     `json:"question" validate:"required,notblank"`
	GroupInfo *GroupInfo `json:"groupInfo,omitempty"`
}

// UnmarshalJSON falls back to the keyword field used by earlier clients when topic is absent.
func (q *Question) UnmarshalJSON(data []byte) error {
	type plain Question
	var decoded struct {
		plain
		Keyword string `json:"keyword"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err //nolint:wrapcheck // keep the json error type for callers
	}
	*q = Question(decoded.plain)
	if q.Topic == "" {
		q.Topic = decoded.Keyword
	}
	return nil
}

// FAQ is a finalized question and answer pair.
type FAQ struct {
	ID       int    `json:"id"`
	Topic    string `json:"topic"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
