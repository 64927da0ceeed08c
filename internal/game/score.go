package game

import "sort"

// Result is a scored round.
type Result struct {
	Region       string
	FirstMoverID string        // user who made the first trainer move (time-zero)
	Entries      []ReportEntry // chasers, ordered ascending by event sequence id
}

// ReportEntry is one chaser's result for a round.
type ReportEntry struct {
	UserID  string
	Elapsed int64 // seconds relative to the first trainer move
	EventID int64
}

// Score computes a round result from pending moves. The first trainer move is
// the trainer entry with the smallest event sequence id (equal ids are not
// expected from a monotonic feed; the tie goes to the lowest user ID). Chaser
// entries are ordered by event sequence id: arrival order on the bus, not
// elapsed time, determines display rank. Elapsed may be negative when a
// chaser's event carries an earlier wall-clock time than the first trainer
// event but a later sequence id; that reflects bus sequencing and is valid.
func Score(moves map[string]Move) (*Result, error) {
	var (
		firstMover string
		first      Move
		haveFirst  bool
		entries    []ReportEntry
	)

	for userID, move := range moves {
		if !move.IsTrainer {
			entries = append(entries, ReportEntry{UserID: userID, Elapsed: move.Time, EventID: move.EventID})
			continue
		}
		if !haveFirst || move.EventID < first.EventID ||
			(move.EventID == first.EventID && userID < firstMover) {
			firstMover = userID
			first = move
			haveFirst = true
		}
	}

	if !haveFirst {
		return nil, ErrNoTrainerMove
	}
	if len(entries) == 0 {
		return nil, ErrNoChaserMoves
	}

	for i := range entries {
		entries[i].Elapsed -= first.Time
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].EventID != entries[j].EventID {
			return entries[i].EventID < entries[j].EventID
		}
		return entries[i].UserID < entries[j].UserID
	})

	return &Result{FirstMoverID: firstMover, Entries: entries}, nil
}

// sortScoreEntries orders standings ascending by total, then by user ID.
func sortScoreEntries(entries []ScoreEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total < entries[j].Total
		}
		return entries[i].UserID < entries[j].UserID
	})
}
