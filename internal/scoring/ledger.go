package scoring

import (
	"sort"

	"github.com/ibrahim-qi/sesh-app/internal/domain"
)

// Ledger is the ordered list of score events of one game. Only the most
// recent event may be removed.
type Ledger struct {
	gameID string
	events []domain.ScoreEvent
}

func NewLedger(gameID string, events []domain.ScoreEvent) *Ledger {
	sorted := make([]domain.ScoreEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Seq < sorted[j].Seq
	})
	return &Ledger{gameID: gameID, events: sorted}
}

func (l *Ledger) Len() int {
	return len(l.events)
}

func (l *Ledger) Events() []domain.ScoreEvent {
	out := make([]domain.ScoreEvent, len(l.events))
	copy(out, l.events)
	return out
}

func (l *Ledger) Last() (domain.ScoreEvent, bool) {
	if len(l.events) == 0 {
		return domain.ScoreEvent{}, false
	}
	return l.events[len(l.events)-1], true
}

func (l *Ledger) nextSeq() int {
	if last, ok := l.Last(); ok {
		return last.Seq + 1
	}
	return 1
}

// Append stamps the event with the game id and the next sequence number.
func (l *Ledger) Append(ev domain.ScoreEvent) domain.ScoreEvent {
	ev.GameID = l.gameID
	ev.Seq = l.nextSeq()
	l.events = append(l.events, ev)
	return ev
}

func (l *Ledger) RetractLast() (domain.ScoreEvent, error) {
	last, ok := l.Last()
	if !ok {
		return domain.ScoreEvent{}, &domain.NoEventsError{GameID: l.gameID}
	}
	l.events = l.events[:len(l.events)-1]
	return last, nil
}

func (l *Ledger) Total(teamID string) int {
	total := 0
	for _, ev := range l.events {
		if ev.TeamID == teamID {
			total += ev.Points
		}
	}
	return total
}

func (l *Ledger) MemberPoints() map[string]int {
	points := make(map[string]int)
	for _, ev := range l.events {
		points[ev.MemberID] += ev.Points
	}
	return points
}
