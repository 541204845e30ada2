package scoring

import (
	"time"

	"github.com/ibrahim-qi/sesh-app/internal/domain"
)

type Outcome struct {
	Completed    bool
	WinnerTeamID string
	Draw         bool
	Forced       bool
}

// Machine drives one game from in_progress to completed. The running
// scores it keeps on the game always equal the ledger totals.
type Machine struct {
	game   domain.Game
	ledger *Ledger
	target int
}

func NewMachine(game domain.Game, events []domain.ScoreEvent, target int) *Machine {
	return &Machine{
		game:   game,
		ledger: NewLedger(game.ID, events),
		target: target,
	}
}

func (m *Machine) Game() domain.Game {
	return m.game
}

func (m *Machine) Ledger() *Ledger {
	return m.ledger
}

// Check compares the cached scores with the ledger.
func (m *Machine) Check() error {
	a, b := m.ledger.Total(m.game.TeamAID), m.ledger.Total(m.game.TeamBID)
	if a == m.game.ScoreA && b == m.game.ScoreB {
		return nil
	}
	return &domain.InconsistentStateError{
		GameID:  m.game.ID,
		CachedA: m.game.ScoreA,
		CachedB: m.game.ScoreB,
		LedgerA: a,
		LedgerB: b,
	}
}

// Reconcile overwrites the cached scores with the ledger totals and reports
// whether anything changed.
func (m *Machine) Reconcile() bool {
	if m.Check() == nil {
		return false
	}
	m.game.ScoreA = m.ledger.Total(m.game.TeamAID)
	m.game.ScoreB = m.ledger.Total(m.game.TeamBID)
	return true
}

// Append validates and records one score event. team is the roster of
// ev.TeamID for this session.
func (m *Machine) Append(ev domain.ScoreEvent, team domain.Team, now time.Time) (domain.ScoreEvent, Outcome, error) {
	if m.game.Status != domain.GameInProgress {
		return domain.ScoreEvent{}, Outcome{}, domain.ErrGameNotInProgress
	}
	if !domain.ValidPoints(ev.Points) {
		return domain.ScoreEvent{}, Outcome{}, domain.Invalid("points", "must be 1, 2 or 3")
	}
	if !m.game.HasTeam(ev.TeamID) {
		return domain.ScoreEvent{}, Outcome{}, domain.Invalid("team_id", "team is not playing in this game")
	}
	if team.ID != ev.TeamID || !team.HasPlayer(ev.MemberID) {
		return domain.ScoreEvent{}, Outcome{}, domain.Invalid("member_id", "player is not on that team")
	}

	ev.CreatedAt = now
	ev = m.ledger.Append(ev)
	m.add(ev.TeamID, ev.Points)

	if m.game.ScoreA < m.target && m.game.ScoreB < m.target {
		return ev, Outcome{}, nil
	}
	return ev, m.complete(now, false), nil
}

// RetractLast removes the most recent event of the game.
func (m *Machine) RetractLast() (domain.ScoreEvent, error) {
	if m.game.Status != domain.GameInProgress {
		return domain.ScoreEvent{}, domain.ErrGameNotInProgress
	}
	ev, err := m.ledger.RetractLast()
	if err != nil {
		return domain.ScoreEvent{}, err
	}
	m.add(ev.TeamID, -ev.Points)
	return ev, nil
}

// ForceComplete ends the game at its current score. Equal scores end in a
// draw with no winning team.
func (m *Machine) ForceComplete(now time.Time) (Outcome, error) {
	if m.game.Status != domain.GameInProgress {
		return Outcome{}, domain.ErrGameNotInProgress
	}
	return m.complete(now, true), nil
}

func (m *Machine) add(teamID string, points int) {
	if teamID == m.game.TeamAID {
		m.game.ScoreA += points
	} else {
		m.game.ScoreB += points
	}
}

func (m *Machine) complete(now time.Time, forced bool) Outcome {
	winner := Winner(m.game)
	m.game.Status = domain.GameCompleted
	m.game.WinnerTeamID = winner
	completedAt := now
	m.game.CompletedAt = &completedAt
	return Outcome{
		Completed:    true,
		WinnerTeamID: winner,
		Draw:         winner == "",
		Forced:       forced,
	}
}

// Winner returns the team with the strictly higher score, or "" when level.
func Winner(g domain.Game) string {
	switch {
	case g.ScoreA > g.ScoreB:
		return g.TeamAID
	case g.ScoreB > g.ScoreA:
		return g.TeamBID
	}
	return ""
}
