package game

import (
	"errors"
	"testing"
)

func newTestSession() *Session {
	return NewSession("results", "chasers", "trainers")
}

// --- linking ---

func TestLink_NormalizesNation(t *testing.T) {
	s := newTestSession()
	got := s.Link("Testlandia Prime", "u1", false)
	if got != "testlandia_prime" {
		t.Errorf("normalized nation = %q, want testlandia_prime", got)
	}
}

func TestLink_LastLinkWins(t *testing.T) {
	s := newTestSession()
	s.Link("testlandia", "u1", false)
	s.Link("testlandia", "u2", true)

	s.SetTargets([]string{"region"})
	if _, err := s.PickTarget(); err != nil {
		t.Fatalf("pick target: %v", err)
	}
	userID, ok := s.RecordMove("testlandia", "region", 100, 1)
	if !ok || userID != "u2" {
		t.Errorf("RecordMove = (%q, %v), want (u2, true)", userID, ok)
	}
}

func TestUnlink_RemovesOneInInsertionOrder(t *testing.T) {
	s := newTestSession()
	s.Link("alpha", "u1", false)
	s.Link("beta", "u1", false)
	s.Link("gamma", "u1", false)

	nation, ok := s.Unlink("u1")
	if !ok || nation != "alpha" {
		t.Fatalf("first unlink = (%q, %v), want (alpha, true)", nation, ok)
	}
	nation, ok = s.Unlink("u1")
	if !ok || nation != "beta" {
		t.Fatalf("second unlink = (%q, %v), want (beta, true)", nation, ok)
	}
	nation, ok = s.Unlink("u1")
	if !ok || nation != "gamma" {
		t.Fatalf("third unlink = (%q, %v), want (gamma, true)", nation, ok)
	}
	if _, ok := s.Unlink("u1"); ok {
		t.Fatal("fourth unlink should report no nation linked")
	}
}

func TestUnlink_NoneLinked(t *testing.T) {
	s := newTestSession()
	s.Link("alpha", "u1", false)
	if _, ok := s.Unlink("u2"); ok {
		t.Fatal("unlink of unknown user should fail")
	}
}

func TestLinkAll_BulkLink(t *testing.T) {
	s := newTestSession()
	count := s.LinkAll([]string{"Switcher One", "switcher_two"}, "u1", true)
	if count != 2 {
		t.Fatalf("LinkAll = %d, want 2", count)
	}
	s.SetTargets([]string{"region"})
	if _, err := s.PickTarget(); err != nil {
		t.Fatalf("pick target: %v", err)
	}
	if _, ok := s.RecordMove("switcher_one", "region", 100, 1); !ok {
		t.Error("switcher_one should be linked")
	}
	if _, ok := s.RecordMove("switcher_two", "region", 101, 2); !ok {
		t.Error("switcher_two should be linked")
	}
}

// --- targets ---

func TestPickTarget_EmptyTargets(t *testing.T) {
	s := newTestSession()
	if _, err := s.PickTarget(); !errors.Is(err, ErrNoTargets) {
		t.Fatalf("err = %v, want ErrNoTargets", err)
	}
	if s.CurrentTarget() != "" {
		t.Error("current target should stay empty after failed pick")
	}
}

func TestPickTarget_DrawsFromConfiguredList(t *testing.T) {
	s := newTestSession()
	targets := []string{"one", "two", "three"}
	s.SetTargets(targets)

	valid := map[string]bool{"one": true, "two": true, "three": true}
	for i := 0; i < 50; i++ {
		region, err := s.PickTarget()
		if err != nil {
			t.Fatalf("pick target: %v", err)
		}
		if !valid[region] {
			t.Fatalf("picked %q, not in configured targets", region)
		}
		if s.CurrentTarget() != region {
			t.Fatalf("current target = %q, want %q", s.CurrentTarget(), region)
		}
	}
}

// --- move recording ---

func TestRecordMove_RequiresTargetAndLink(t *testing.T) {
	s := newTestSession()
	s.Link("testlandia", "u1", false)

	// No current target.
	if _, ok := s.RecordMove("testlandia", "region", 100, 1); ok {
		t.Error("move should not match without a current target")
	}

	s.SetTargets([]string{"region"})
	if _, err := s.PickTarget(); err != nil {
		t.Fatalf("pick target: %v", err)
	}

	// Wrong destination.
	if _, ok := s.RecordMove("testlandia", "elsewhere", 100, 1); ok {
		t.Error("move to a different region should not match")
	}
	// Unlinked nation.
	if _, ok := s.RecordMove("stranger", "region", 100, 1); ok {
		t.Error("unlinked nation should not match")
	}
	// Match.
	if userID, ok := s.RecordMove("testlandia", "region", 100, 1); !ok || userID != "u1" {
		t.Errorf("RecordMove = (%q, %v), want (u1, true)", userID, ok)
	}
}

func TestRecordMove_OverwritesNotAccumulates(t *testing.T) {
	s := newTestSession()
	s.Link("trainer", "t1", true)
	s.Link("chaser", "c1", false)
	s.SetTargets([]string{"region"})
	if _, err := s.PickTarget(); err != nil {
		t.Fatalf("pick target: %v", err)
	}

	s.RecordMove("trainer", "region", 100, 1)
	// Same chaser event processed twice: the pending move is overwritten,
	// not accumulated.
	s.RecordMove("chaser", "region", 105, 2)
	s.RecordMove("chaser", "region", 105, 2)

	result, err := s.Report()
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(result.Entries))
	}
	if result.Entries[0].Elapsed != 5 {
		t.Errorf("elapsed = %d, want 5", result.Entries[0].Elapsed)
	}
}

// --- report ---

func TestReport_SuccessClearsRoundState(t *testing.T) {
	s := newTestSession()
	s.Link("trainer", "t1", true)
	s.Link("chaser", "c1", false)
	s.SetTargets([]string{"region"})
	if _, err := s.PickTarget(); err != nil {
		t.Fatalf("pick target: %v", err)
	}
	s.RecordMove("trainer", "region", 100, 1)
	s.RecordMove("chaser", "region", 105, 2)

	result, err := s.Report()
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if result.Region != "region" {
		t.Errorf("region = %q, want region", result.Region)
	}
	if s.CurrentTarget() != "" {
		t.Error("current target should be cleared after report")
	}
	// A second report finds no pending moves.
	if _, err := s.Report(); !errors.Is(err, ErrNoTrainerMove) {
		t.Errorf("second report err = %v, want ErrNoTrainerMove", err)
	}
}

func TestReport_NoTrainerMoveLeavesStateUnchanged(t *testing.T) {
	s := newTestSession()
	s.Link("chaser", "c1", false)
	s.SetTargets([]string{"region"})
	if _, err := s.PickTarget(); err != nil {
		t.Fatalf("pick target: %v", err)
	}
	s.RecordMove("chaser", "region", 105, 2)

	if _, err := s.Report(); !errors.Is(err, ErrNoTrainerMove) {
		t.Fatalf("err = %v, want ErrNoTrainerMove", err)
	}
	if s.CurrentTarget() != "region" {
		t.Error("current target should be unchanged after failed report")
	}

	// The pending chaser move is still there: linking a trainer and moving
	// them completes the round with the original chaser entry.
	s.Link("trainer", "t1", true)
	s.RecordMove("trainer", "region", 100, 1)
	result, err := s.Report()
	if err != nil {
		t.Fatalf("report after trainer move: %v", err)
	}
	if len(result.Entries) != 1 || result.Entries[0].UserID != "c1" {
		t.Errorf("entries = %+v, want single c1 entry", result.Entries)
	}
}

func TestReport_NoChaserMovesLeavesStateUnchanged(t *testing.T) {
	s := newTestSession()
	s.Link("trainer", "t1", true)
	s.SetTargets([]string{"region"})
	if _, err := s.PickTarget(); err != nil {
		t.Fatalf("pick target: %v", err)
	}
	s.RecordMove("trainer", "region", 100, 1)

	if _, err := s.Report(); !errors.Is(err, ErrNoChaserMoves) {
		t.Fatalf("err = %v, want ErrNoChaserMoves", err)
	}
	if s.CurrentTarget() != "region" {
		t.Error("current target should be unchanged after failed report")
	}
}

// --- tally ---

func TestTally_AccumulatesAcrossRounds(t *testing.T) {
	s := newTestSession()
	s.Link("trainer", "t1", true)
	s.Link("chaser", "x", false)
	s.SetTargets([]string{"region"})

	// Round one: elapsed 5.
	if _, err := s.PickTarget(); err != nil {
		t.Fatalf("pick target: %v", err)
	}
	s.RecordMove("trainer", "region", 100, 1)
	s.RecordMove("chaser", "region", 105, 2)
	if _, err := s.Report(); err != nil {
		t.Fatalf("round one report: %v", err)
	}

	// Round two: elapsed 3.
	if _, err := s.PickTarget(); err != nil {
		t.Fatalf("pick target: %v", err)
	}
	s.RecordMove("trainer", "region", 200, 3)
	s.RecordMove("chaser", "region", 203, 4)
	if _, err := s.Report(); err != nil {
		t.Fatalf("round two report: %v", err)
	}

	entries, err := s.Tally()
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].UserID != "x" || entries[0].Total != 8 {
		t.Errorf("tally = %+v, want x with total 8", entries[0])
	}
}

func TestTally_AscendingByTotal(t *testing.T) {
	s := newTestSession()
	s.mu.Lock()
	s.scores = map[string]int64{"X": 8, "Y": 2, "Z": 5}
	s.mu.Unlock()

	entries, err := s.Tally()
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	want := []string{"Y", "Z", "X"}
	for i, w := range want {
		if entries[i].UserID != w {
			t.Errorf("entries[%d] = %q, want %q", i, entries[i].UserID, w)
		}
	}
}

func TestTally_Empty(t *testing.T) {
	s := newTestSession()
	if _, err := s.Tally(); !errors.Is(err, ErrNoScoresYet) {
		t.Fatalf("err = %v, want ErrNoScoresYet", err)
	}
}

// --- normalization ---

func TestNormalizeNation(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Testlandia", "testlandia"},
		{"The North Pacific", "the_north_pacific"},
		{"  padded  ", "padded"},
		{"already_normal", "already_normal"},
	}
	for _, tt := range tests {
		if got := NormalizeNation(tt.input); got != tt.want {
			t.Errorf("NormalizeNation(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
