// Package game implements the chase-session core: the per-guild session
// state machine, the session registry, and round scoring.
package game

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
)

// Sentinel errors returned by session operations.
var (
	ErrNoTargets     = errors.New("game: no targets configured")
	ErrNoTrainerMove = errors.New("game: trainers have not moved yet")
	ErrNoChaserMoves = errors.New("game: no chasers have moved")
	ErrNoScoresYet   = errors.New("game: no scores recorded yet")
)

// Link associates a nation with the Discord user who controls it.
type Link struct {
	UserID    string
	IsTrainer bool
}

// Move is the most recent recorded move for one user during the current round.
type Move struct {
	Time      int64 // arrival time, integer seconds
	EventID   int64 // event sequence id, globally monotonic
	IsTrainer bool
}

// Session holds the state of one active chase game. The channel IDs are set
// at creation and immutable; all other fields are guarded by mu.
type Session struct {
	ResultsChannel  string
	ChasersChannel  string
	TrainersChannel string

	mu            sync.Mutex
	targets       []string
	users         map[string]Link
	userOrder     []string // nation keys in insertion order, for deterministic unlink
	currentTarget string
	moves         map[string]Move
	scores        map[string]int64
}

// NewSession creates a session posting to the given channels.
func NewSession(resultsChannel, chasersChannel, trainersChannel string) *Session {
	return &Session{
		ResultsChannel:  resultsChannel,
		ChasersChannel:  chasersChannel,
		TrainersChannel: trainersChannel,
		users:           make(map[string]Link),
		moves:           make(map[string]Move),
		scores:          make(map[string]int64),
	}
}

// NormalizeNation canonicalizes a nation name the way NationStates does:
// lowercase, spaces replaced with underscores.
func NormalizeNation(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// SetTargets replaces the target list.
func (s *Session) SetTargets(targets []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets = make([]string, len(targets))
	copy(s.targets, targets)
}

// TargetCount returns the number of configured targets.
func (s *Session) TargetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.targets)
}

// Link maps a nation to a user. The nation key is normalized; last link wins.
// Returns the normalized nation name.
func (s *Session) Link(nation, userID string, isTrainer bool) string {
	nation = NormalizeNation(nation)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.link(nation, userID, isTrainer)
	return nation
}

// LinkAll bulk-links several nations (switchers) to one user. Returns the
// number of nations linked.
func (s *Session) LinkAll(nations []string, userID string, isTrainer bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range nations {
		s.link(NormalizeNation(n), userID, isTrainer)
	}
	return len(nations)
}

// link requires mu held.
func (s *Session) link(nation, userID string, isTrainer bool) {
	if _, exists := s.users[nation]; !exists {
		s.userOrder = append(s.userOrder, nation)
	}
	s.users[nation] = Link{UserID: userID, IsTrainer: isTrainer}
}

// Unlink removes the first nation (in insertion order) linked to userID.
// Only one nation is removed even if several map to the same user. Returns
// the removed nation and whether one was found.
func (s *Session) Unlink(userID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, nation := range s.userOrder {
		if s.users[nation].UserID != userID {
			continue
		}
		delete(s.users, nation)
		s.userOrder = append(s.userOrder[:i], s.userOrder[i+1:]...)
		return nation, true
	}
	return "", false
}

// PickTarget chooses a target uniformly at random (with replacement across
// rounds) and makes it the current target. Returns ErrNoTargets if the
// target list is empty.
func (s *Session) PickTarget() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.targets) == 0 {
		return "", ErrNoTargets
	}
	region := s.targets[rand.Intn(len(s.targets))]
	s.currentTarget = region
	return region, nil
}

// CurrentTarget returns the active target region, or "" if none.
func (s *Session) CurrentTarget() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTarget
}

// RecordMove correlates a bus event against this session. It matches when
// the destination equals the current target and the nation is linked; the
// linked user's pending move is unconditionally overwritten. Returns the
// matched user ID and whether the event matched.
func (s *Session) RecordMove(nation, destination string, time, eventID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentTarget == "" || s.currentTarget != destination {
		return "", false
	}
	link, ok := s.users[nation]
	if !ok {
		return "", false
	}
	s.moves[link.UserID] = Move{Time: time, EventID: eventID, IsTrainer: link.IsTrainer}
	return link.UserID, true
}

// Report scores the current round. On success it folds each chaser's elapsed
// time into the cumulative scores, clears the current target and pending
// moves, and returns the result. On any error the session is unchanged.
func (s *Session) Report() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := Score(s.moves)
	if err != nil {
		return nil, err
	}
	result.Region = s.currentTarget

	for _, e := range result.Entries {
		s.scores[e.UserID] += e.Elapsed
	}
	s.currentTarget = ""
	s.moves = make(map[string]Move)
	return result, nil
}

// ScoreEntry is one row of the cumulative standings.
type ScoreEntry struct {
	UserID string
	Total  int64
}

// Tally returns the cumulative standings sorted ascending by total time
// (lower is better; ties broken by user ID for determinism). Returns
// ErrNoScoresYet if no round has been scored.
func (s *Session) Tally() ([]ScoreEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.scores) == 0 {
		return nil, ErrNoScoresYet
	}
	entries := make([]ScoreEntry, 0, len(s.scores))
	for userID, total := range s.scores {
		entries = append(entries, ScoreEntry{UserID: userID, Total: total})
	}
	sortScoreEntries(entries)
	return entries, nil
}
