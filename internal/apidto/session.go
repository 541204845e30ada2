package apidto

import (
	"time"

	"github.com/ibrahim-qi/sesh-app/internal/domain"
)

type Session struct {
	ID          string    `json:"id"`
	HostID      string    `json:"host_id,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Location    string    `json:"location"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type Team struct {
	ID        string   `json:"id"`
	SessionID string   `json:"session_id"`
	Name      string   `json:"name"`
	Color     string   `json:"color"`
	ColorHex  string   `json:"color_hex"`
	CaptainID string   `json:"captain_id,omitempty"`
	Position  int      `json:"position"`
	PlayerIDs []string `json:"player_ids"`
}

type Game struct {
	ID           string     `json:"id"`
	SessionID    string     `json:"session_id"`
	Number       int        `json:"number"`
	TeamAID      string     `json:"team_a_id"`
	TeamBID      string     `json:"team_b_id"`
	ScoreA       int        `json:"score_a"`
	ScoreB       int        `json:"score_b"`
	WinnerTeamID string     `json:"winner_team_id,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

type ScoreEvent struct {
	ID        string    `json:"id"`
	GameID    string    `json:"game_id"`
	MemberID  string    `json:"member_id,omitempty"`
	TeamID    string    `json:"team_id"`
	Points    int       `json:"points"`
	Seq       int       `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

func FromSession(s *domain.Session) Session {
	if s == nil {
		return Session{}
	}
	return Session{
		ID:          s.ID,
		HostID:      s.HostID,
		CreatedBy:   s.CreatedBy,
		ScheduledAt: s.ScheduledAt,
		Location:    s.Location,
		Status:      string(s.Status),
		CreatedAt:   s.CreatedAt,
	}
}

func FromSessions(sessions []domain.Session) []Session {
	out := make([]Session, 0, len(sessions))
	for i := range sessions {
		out = append(out, FromSession(&sessions[i]))
	}
	return out
}

func FromTeam(t *domain.Team) Team {
	if t == nil {
		return Team{}
	}
	players := t.PlayerIDs
	if players == nil {
		players = []string{}
	}
	return Team{
		ID:        t.ID,
		SessionID: t.SessionID,
		Name:      t.Name,
		Color:     string(t.Color),
		ColorHex:  t.Color.Hex(),
		CaptainID: t.CaptainID,
		Position:  t.Position,
		PlayerIDs: players,
	}
}

func FromTeams(teams []domain.Team) []Team {
	out := make([]Team, 0, len(teams))
	for i := range teams {
		out = append(out, FromTeam(&teams[i]))
	}
	return out
}

func FromGame(g *domain.Game) *Game {
	if g == nil {
		return nil
	}
	return &Game{
		ID:           g.ID,
		SessionID:    g.SessionID,
		Number:       g.Number,
		TeamAID:      g.TeamAID,
		TeamBID:      g.TeamBID,
		ScoreA:       g.ScoreA,
		ScoreB:       g.ScoreB,
		WinnerTeamID: g.WinnerTeamID,
		Status:       string(g.Status),
		CreatedAt:    g.CreatedAt,
		CompletedAt:  g.CompletedAt,
	}
}

func FromGames(games []domain.Game) []Game {
	out := make([]Game, 0, len(games))
	for i := range games {
		out = append(out, *FromGame(&games[i]))
	}
	return out
}

func FromScoreEvent(ev *domain.ScoreEvent) *ScoreEvent {
	if ev == nil {
		return nil
	}
	return &ScoreEvent{
		ID:        ev.ID,
		GameID:    ev.GameID,
		MemberID:  ev.MemberID,
		TeamID:    ev.TeamID,
		Points:    ev.Points,
		Seq:       ev.Seq,
		CreatedAt: ev.CreatedAt,
	}
}

func FromScoreEvents(evs []domain.ScoreEvent) []ScoreEvent {
	out := make([]ScoreEvent, 0, len(evs))
	for i := range evs {
		out = append(out, *FromScoreEvent(&evs[i]))
	}
	return out
}
