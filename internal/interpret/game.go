package interpret

import (
	"time"

	"github.com/SoumenSample/NetraVaani/internal/bus"
	"github.com/SoumenSample/NetraVaani/internal/gesture"
)

const (
	gameTrackWidth   = 600
	gameHitZoneStart = 250
	gameHitZoneEnd   = 350
	// Pixels per second, matching a one pixel step at sixty frames.
	gameSpeed = 60
)

// GameState is broadcast on the game topic after every attempt.
type GameState struct {
	TargetX int    `json:"targetX"`
	Hit     bool   `json:"hit"`
	Score   int    `json:"score"`
	Message string `json:"message"`
}

// GameSession runs the target timing game. The target sweeps the track at a
// fixed speed; any blink while it crosses the green zone scores.
type GameSession struct {
	actions Actions
	start   time.Time
	score   int
}

func NewGameSession(actions Actions, start time.Time) *GameSession {
	return &GameSession{actions: actions, start: start}
}

func (s *GameSession) Mode() string { return "game" }

// Claims takes every valid blink count: any blink is a hit attempt.
func (s *GameSession) Claims(count int) bool {
	return gesture.Valid(count)
}

func (s *GameSession) Handle(in Input) {
	x := s.targetX(in.Now)
	hit := x >= gameHitZoneStart && x <= gameHitZoneEnd
	msg := "Miss! Try Again!"
	if hit {
		s.score++
		msg = "Perfect Blink!"
	}
	s.actions.Publish(bus.TopicGame, GameState{TargetX: x, Hit: hit, Score: s.score, Message: msg})
}

func (s *GameSession) targetX(now time.Time) int {
	elapsed := now.Sub(s.start)
	if elapsed < 0 {
		elapsed = 0
	}
	px := int(elapsed.Seconds() * gameSpeed)
	return px % gameTrackWidth
}

// Score returns hits so far.
func (s *GameSession) Score() int { return s.score }
