package models

import "time"

// LearningTopic is an externally curated pointer to an upcoming learning
// resource, surfaced on the dashboard as a bounded coming-soon list.
type LearningTopic struct {
	ID         string    `db:"id" json:"id"`
	ComingSoon string    `db:"coming_soon" json:"coming_soon"`
	URL        string    `db:"url" json:"url"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// LearningTopicFilter captures listing criteria for learning topics.
type LearningTopicFilter struct {
	ActiveOnly bool
	Page       int
	PageSize   int
}
