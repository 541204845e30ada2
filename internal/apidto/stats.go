package apidto

import (
	"github.com/ibrahim-qi/sesh-app/internal/stats"
)

type MemberLine struct {
	Member        Member  `json:"member"`
	Points        int     `json:"points"`
	FreeThrows    int     `json:"free_throws"`
	TwoPointers   int     `json:"two_pointers"`
	ThreePointers int     `json:"three_pointers"`
	Games         int     `json:"games"`
	Wins          int     `json:"wins"`
	Draws         int     `json:"draws"`
	Losses        int     `json:"losses"`
	WinRate       int     `json:"win_rate"`
	PPG           float64 `json:"ppg"`
}

type Leaderboards struct {
	Points  []MemberLine `json:"points"`
	Wins    []MemberLine `json:"wins"`
	WinRate []MemberLine `json:"win_rate"`
}

type Streak struct {
	TeamID string `json:"team_id"`
	Count  int    `json:"count"`
}

type TeamAward struct {
	TeamID string `json:"team_id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Count  int    `json:"count"`
}

type MemberAward struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
}

type GameLine struct {
	Number       int    `json:"number"`
	TeamA        string `json:"team_a"`
	TeamB        string `json:"team_b"`
	ScoreA       int    `json:"score_a"`
	ScoreB       int    `json:"score_b"`
	WinnerTeamID string `json:"winner_team_id,omitempty"`
}

type Recap struct {
	Kings     *TeamAward   `json:"kings"`
	MVP       *MemberAward `json:"mvp"`
	Sniper    *MemberAward `json:"sniper,omitempty"`
	Standings []TeamAward  `json:"standings"`
	Games     []GameLine   `json:"games"`
	Streak    *Streak      `json:"streak,omitempty"`
}

func FromMemberLine(l stats.MemberLine) MemberLine {
	return MemberLine{
		Member:        FromMember(&l.Member),
		Points:        l.Points,
		FreeThrows:    l.FreeThrows,
		TwoPointers:   l.TwoPointers,
		ThreePointers: l.ThreePointers,
		Games:         l.Games,
		Wins:          l.Wins,
		Draws:         l.Draws,
		Losses:        l.Losses,
		WinRate:       l.WinRate,
		PPG:           l.PPG,
	}
}

func fromMemberLines(lines []stats.MemberLine) []MemberLine {
	out := make([]MemberLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, FromMemberLine(l))
	}
	return out
}

func FromLeaderboards(b stats.Leaderboards) Leaderboards {
	return Leaderboards{
		Points:  fromMemberLines(b.Points),
		Wins:    fromMemberLines(b.Wins),
		WinRate: fromMemberLines(b.WinRate),
	}
}

func FromStreak(s *stats.Streak) *Streak {
	if s == nil {
		return nil
	}
	return &Streak{TeamID: s.TeamID, Count: s.Count}
}

func fromTeamAward(a stats.TeamAward) TeamAward {
	return TeamAward{TeamID: a.Team.ID, Name: a.Team.Name, Color: string(a.Team.Color), Count: a.Count}
}

func fromMemberAward(a *stats.MemberAward) *MemberAward {
	if a == nil {
		return nil
	}
	return &MemberAward{MemberID: a.Member.ID, Name: a.Member.Name, Count: a.Count}
}

func FromRecap(r stats.Recap) Recap {
	out := Recap{
		MVP:       fromMemberAward(r.MVP),
		Sniper:    fromMemberAward(r.Sniper),
		Standings: make([]TeamAward, 0, len(r.Standings)),
		Games:     make([]GameLine, 0, len(r.Games)),
		Streak:    FromStreak(r.Streak),
	}
	if r.Kings != nil {
		kings := fromTeamAward(*r.Kings)
		out.Kings = &kings
	}
	for _, s := range r.Standings {
		out.Standings = append(out.Standings, fromTeamAward(s))
	}
	for _, g := range r.Games {
		out.Games = append(out.Games, GameLine{
			Number:       g.Number,
			TeamA:        g.TeamA.Name,
			TeamB:        g.TeamB.Name,
			ScoreA:       g.ScoreA,
			ScoreB:       g.ScoreB,
			WinnerTeamID: g.WinnerTeamID,
		})
	}
	return out
}
