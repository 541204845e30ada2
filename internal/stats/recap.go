package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ibrahim-qi/sesh-app/internal/constants"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
)

type Streak struct {
	TeamID string
	Count  int
}

type TeamAward struct {
	Team  domain.Team
	Count int
}

type MemberAward struct {
	Member domain.Member
	Count  int
}

type GameLine struct {
	Number       int
	TeamA        domain.Team
	TeamB        domain.Team
	ScoreA       int
	ScoreB       int
	WinnerTeamID string
	Status       domain.GameStatus
}

type Recap struct {
	Kings     *TeamAward
	MVP       *MemberAward
	Sniper    *MemberAward
	Standings []TeamAward
	Games     []GameLine
	Streak    *Streak
}

// CurrentStreak counts how many of the most recently completed games were
// won by the same team. Streaks shorter than two are not reported, and a
// draw at the head means no streak.
func CurrentStreak(games []domain.Game) (Streak, bool) {
	completed := make([]domain.Game, 0, len(games))
	for _, g := range games {
		if g.Status == domain.GameCompleted {
			completed = append(completed, g)
		}
	}
	sort.SliceStable(completed, func(i, j int) bool {
		ci, cj := completedAt(completed[i]), completedAt(completed[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return completed[i].Number > completed[j].Number
	})

	if len(completed) == 0 || completed[0].WinnerTeamID == "" {
		return Streak{}, false
	}

	head := completed[0].WinnerTeamID
	count := 0
	for _, g := range completed {
		if g.WinnerTeamID != head {
			break
		}
		count++
	}
	if count < constants.MinStreakLength {
		return Streak{}, false
	}
	return Streak{TeamID: head, Count: count}, true
}

// BuildRecap computes the session superlatives. Ties go to the name that
// sorts first, then the lower id.
func BuildRecap(in Input) Recap {
	teams := make(map[string]domain.Team, len(in.Teams))
	for _, t := range in.Teams {
		teams[t.ID] = t
	}

	var recap Recap

	wins := make(map[string]int, len(in.Teams))
	games := append([]domain.Game(nil), in.Games...)
	sort.SliceStable(games, func(i, j int) bool { return games[i].Number < games[j].Number })
	for _, g := range games {
		recap.Games = append(recap.Games, GameLine{
			Number:       g.Number,
			TeamA:        teams[g.TeamAID],
			TeamB:        teams[g.TeamBID],
			ScoreA:       g.ScoreA,
			ScoreB:       g.ScoreB,
			WinnerTeamID: g.WinnerTeamID,
			Status:       g.Status,
		})
		if g.Status == domain.GameCompleted && g.WinnerTeamID != "" {
			wins[g.WinnerTeamID]++
		}
	}

	for _, t := range in.Teams {
		recap.Standings = append(recap.Standings, TeamAward{Team: t, Count: wins[t.ID]})
	}
	sort.SliceStable(recap.Standings, func(i, j int) bool {
		a, b := recap.Standings[i], recap.Standings[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return lessByName(a.Team.Name, a.Team.ID, b.Team.Name, b.Team.ID)
	})
	if len(recap.Standings) > 0 && recap.Standings[0].Count > 0 {
		kings := recap.Standings[0]
		recap.Kings = &kings
	}

	lines := MemberLines(in)
	recap.MVP = topMember(lines, func(l MemberLine) int { return l.Points })
	recap.Sniper = topMember(lines, func(l MemberLine) int { return l.TwoPointers })

	if s, ok := CurrentStreak(in.Games); ok {
		recap.Streak = &s
	}
	return recap
}

func topMember(lines []MemberLine, value func(MemberLine) int) *MemberAward {
	var best *MemberAward
	for _, l := range lines {
		v := value(l)
		if v <= 0 {
			continue
		}
		if best == nil || v > best.Count ||
			(v == best.Count && lessByName(l.Member.Name, l.Member.ID, best.Member.Name, best.Member.ID)) {
			best = &MemberAward{Member: l.Member, Count: v}
		}
	}
	return best
}

func completedAt(g domain.Game) time.Time {
	if g.CompletedAt != nil {
		return *g.CompletedAt
	}
	return g.CreatedAt
}

// RecapText renders the shareable recap.
func RecapText(scheduledAt time.Time, r Recap) string {
	lines := []string{
		fmt.Sprintf("Sesh Recap - %s", scheduledAt.Format("Monday 2 Jan")),
		"",
	}

	if r.Kings != nil {
		lines = append(lines, fmt.Sprintf("Kings: %s (%d %s)", r.Kings.Team.Name, r.Kings.Count, plural(r.Kings.Count, "win", "wins")))
	} else {
		lines = append(lines, "Kings: -")
	}
	if r.MVP != nil {
		lines = append(lines, fmt.Sprintf("MVP: %s (%dpts)", r.MVP.Member.Name, r.MVP.Count))
	} else {
		lines = append(lines, "MVP: -")
	}
	if r.Sniper != nil {
		lines = append(lines, fmt.Sprintf("Sniper: %s (%d 2s)", r.Sniper.Member.Name, r.Sniper.Count))
	}

	lines = append(lines, "", "Games:")
	for i, g := range r.Games {
		lines = append(lines, fmt.Sprintf("%d. %s %d-%d %s", i+1, g.TeamA.Name, g.ScoreA, g.ScoreB, g.TeamB.Name))
	}
	return strings.Join(lines, "\n")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
