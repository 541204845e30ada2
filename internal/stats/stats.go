// Package stats derives standings, leaderboards and session recaps from
// completed games and their score events. Nothing here is persisted; every
// figure is recomputed from the ledger.
package stats

import (
	"math"
	"sort"
	"strings"

	"github.com/ibrahim-qi/sesh-app/internal/constants"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
)

// Input is the scope of an aggregation: a session or a whole squad.
type Input struct {
	Members []domain.Member
	Teams   []domain.Team
	Games   []domain.Game
	Events  []domain.ScoreEvent
}

type MemberLine struct {
	Member        domain.Member
	Points        int
	FreeThrows    int
	TwoPointers   int
	ThreePointers int
	Games         int
	Wins          int
	Draws         int
	Losses        int
	WinRate       int
	PPG           float64
}

type Leaderboards struct {
	Points  []MemberLine
	Wins    []MemberLine
	WinRate []MemberLine
}

func WinRate(wins, games int) int {
	if games == 0 {
		return 0
	}
	return int(math.Round(float64(wins) / float64(games) * 100))
}

func PPG(points, games int) float64 {
	if games == 0 {
		return 0
	}
	return math.Round(float64(points)/float64(games)*10) / 10
}

// MemberLines returns one line per member in input order. Only completed
// games and their events count. A member is credited per game through the
// team they were on for that game.
func MemberLines(in Input) []MemberLine {
	completed := completedGames(in.Games)
	rosters := rosterIndex(in.Teams)

	index := make(map[string]int, len(in.Members))
	lines := make([]MemberLine, len(in.Members))
	for i, m := range in.Members {
		index[m.ID] = i
		lines[i].Member = m
	}

	for _, ev := range in.Events {
		if _, ok := completed[ev.GameID]; !ok {
			continue
		}
		i, ok := index[ev.MemberID]
		if !ok {
			continue
		}
		l := &lines[i]
		l.Points += ev.Points
		switch ev.Points {
		case 1:
			l.FreeThrows++
		case 2:
			l.TwoPointers++
		case 3:
			l.ThreePointers++
		}
	}

	for _, g := range in.Games {
		if g.Status != domain.GameCompleted {
			continue
		}
		credited := make(map[string]bool)
		for _, teamID := range []string{g.TeamAID, g.TeamBID} {
			for memberID := range rosters[teamID] {
				i, ok := index[memberID]
				if !ok || credited[memberID] {
					continue
				}
				credited[memberID] = true
				l := &lines[i]
				l.Games++
				switch g.WinnerTeamID {
				case teamID:
					l.Wins++
				case "":
					l.Draws++
				default:
					l.Losses++
				}
			}
		}
	}

	for i := range lines {
		lines[i].WinRate = WinRate(lines[i].Wins, lines[i].Games)
		lines[i].PPG = PPG(lines[i].Points, lines[i].Games)
	}
	return lines
}

// BuildLeaderboards sorts member lines three ways. Equal values keep input
// order. The win-rate board only lists members with enough games.
func BuildLeaderboards(lines []MemberLine) Leaderboards {
	points := append([]MemberLine(nil), lines...)
	sort.SliceStable(points, func(i, j int) bool { return points[i].Points > points[j].Points })

	wins := append([]MemberLine(nil), lines...)
	sort.SliceStable(wins, func(i, j int) bool { return wins[i].Wins > wins[j].Wins })

	winRate := make([]MemberLine, 0, len(lines))
	for _, l := range lines {
		if l.Games >= constants.MinGamesForWinRate {
			winRate = append(winRate, l)
		}
	}
	sort.SliceStable(winRate, func(i, j int) bool { return winRate[i].WinRate > winRate[j].WinRate })

	return Leaderboards{Points: points, Wins: wins, WinRate: winRate}
}

func completedGames(games []domain.Game) map[string]domain.Game {
	out := make(map[string]domain.Game, len(games))
	for _, g := range games {
		if g.Status == domain.GameCompleted {
			out[g.ID] = g
		}
	}
	return out
}

func rosterIndex(teams []domain.Team) map[string]map[string]bool {
	out := make(map[string]map[string]bool, len(teams))
	for _, t := range teams {
		set := make(map[string]bool, len(t.PlayerIDs))
		for _, id := range t.PlayerIDs {
			set[id] = true
		}
		out[t.ID] = set
	}
	return out
}

// lessByName orders equal counts by case-insensitive name, then id.
func lessByName(nameI, idI, nameJ, idJ string) bool {
	li, lj := strings.ToLower(nameI), strings.ToLower(nameJ)
	if li != lj {
		return li < lj
	}
	return idI < idJ
}
