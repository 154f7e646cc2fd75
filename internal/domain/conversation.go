package domain

import "time"

// User is a chat participant keyed by the messaging platform user id.
type User struct {
	ID   string
	Name string
}

// ChatTurn is an append-only log entry of one answered utterance.
type ChatTurn struct {
	UserID    string
	Message   string
	Reply     string
	CreatedAt time.Time
}

// QAPair is a stored question and its answer, looked up by exact question text.
type QAPair struct {
	UserID    string
	Question  string
	Answer    string
	CreatedAt time.Time
}

// GreetingEntry maps a canonical phrase to its canned reply.
type GreetingEntry struct {
	Phrase string `yaml:"phrase" json:"phrase"`
	Reply  string `yaml:"reply" json:"reply"`
}
