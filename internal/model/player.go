package model

import "github.com/drafti/drafti-backend/internal/engine"

type Player struct {
	ID string
}

// ClientPlayer is a seat as the frontend sees it. TimeLeft is in tenths of a
// second.
type ClientPlayer struct {
	ID       string       `json:"name"`
	Color    engine.Color `json:"color"`
	TimeLeft int          `json:"timeLeft"`
	IsAI     bool         `json:"isAI"`
	Level    int          `json:"level,omitempty"`
}

func (p ClientPlayer) Seated() bool {
	return p.ID != ""
}
