package scoring

import (
	"fmt"

	"github.com/ibrahim-qi/sesh-app/internal/domain"
)

type Matchup struct {
	TeamAID string
	TeamBID string
}

// Sequencer rotates teams through a session: winner stays on, loser goes to
// the back of the waiting queue.
type Sequencer struct {
	current Matchup
	waiting []string
}

// NewSequencer seeds the rotation from teams in configured order. The first
// two teams play first.
func NewSequencer(teamIDs []string) (*Sequencer, error) {
	if len(teamIDs) < 2 {
		return nil, domain.ErrNotEnoughTeams
	}
	waiting := make([]string, len(teamIDs)-2)
	copy(waiting, teamIDs[2:])
	return &Sequencer{
		current: Matchup{TeamAID: teamIDs[0], TeamBID: teamIDs[1]},
		waiting: waiting,
	}, nil
}

// Replay rebuilds the rotation by advancing over completed games in order.
// A draw keeps team A on.
func Replay(teamIDs []string, completed []domain.Game) (*Sequencer, error) {
	s, err := NewSequencer(teamIDs)
	if err != nil {
		return nil, err
	}
	for _, g := range completed {
		if !s.plays(g) {
			return nil, fmt.Errorf("game %d (%s) does not follow the rotation", g.Number, g.ID)
		}
		winner := g.WinnerTeamID
		if winner == "" {
			winner = g.TeamAID
		}
		if _, err := s.Advance(winner); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Sequencer) Current() Matchup {
	return s.current
}

func (s *Sequencer) Waiting() []string {
	out := make([]string, len(s.waiting))
	copy(out, s.waiting)
	return out
}

// Advance records the winner of the current game and returns the next
// matchup with the winner in slot A.
func (s *Sequencer) Advance(winnerID string) (Matchup, error) {
	var loser string
	switch winnerID {
	case s.current.TeamAID:
		loser = s.current.TeamBID
	case s.current.TeamBID:
		loser = s.current.TeamAID
	default:
		return Matchup{}, domain.Invalid("winner", "team is not in the current game")
	}

	if len(s.waiting) == 0 {
		s.current = Matchup{TeamAID: winnerID, TeamBID: loser}
		return s.current, nil
	}

	next := s.waiting[0]
	s.waiting = append(s.waiting[1:], loser)
	s.current = Matchup{TeamAID: winnerID, TeamBID: next}
	return s.current, nil
}

func (s *Sequencer) plays(g domain.Game) bool {
	return (g.TeamAID == s.current.TeamAID && g.TeamBID == s.current.TeamBID) ||
		(g.TeamAID == s.current.TeamBID && g.TeamBID == s.current.TeamAID)
}
