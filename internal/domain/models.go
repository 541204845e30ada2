package domain

import (
	"time"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleHost    Role = "host"
	RoleCaptain Role = "captain"
	RolePlayer  Role = "player"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHost, RoleCaptain, RolePlayer:
		return true
	}
	return false
}

type Group struct {
	ID         string
	Name       string
	InviteCode string
	CreatedAt  time.Time
}

type Member struct {
	ID        string
	GroupID   string
	Name      string
	AvatarURL string
	Role      Role
	CreatedAt time.Time
}

type SessionStatus string

const (
	SessionUpcoming  SessionStatus = "upcoming"
	SessionLive      SessionStatus = "live"
	SessionCompleted SessionStatus = "completed"
)

type Session struct {
	ID          string
	GroupID     string
	HostID      string // empty when no host
	CreatedBy   string // empty when the creator was removed
	ScheduledAt time.Time
	Location    string
	Status      SessionStatus
	CreatedAt   time.Time
}

type Team struct {
	ID        string
	SessionID string
	Name      string
	Color     TeamColor
	CaptainID string
	Position  int
	PlayerIDs []string
	CreatedAt time.Time
}

func (t Team) HasPlayer(memberID string) bool {
	for _, id := range t.PlayerIDs {
		if id == memberID {
			return true
		}
	}
	return false
}

type GameStatus string

const (
	GameInProgress GameStatus = "in_progress"
	GameCompleted  GameStatus = "completed"
)

type Game struct {
	ID           string
	SessionID    string
	Number       int
	TeamAID      string
	TeamBID      string
	ScoreA       int
	ScoreB       int
	WinnerTeamID string // empty while in progress or for a draw
	Status       GameStatus
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

func (g Game) HasTeam(teamID string) bool {
	return teamID != "" && (teamID == g.TeamAID || teamID == g.TeamBID)
}

// Opponent returns the other team of the game, or "" if teamID is not playing.
func (g Game) Opponent(teamID string) string {
	switch teamID {
	case g.TeamAID:
		return g.TeamBID
	case g.TeamBID:
		return g.TeamAID
	}
	return ""
}

func (g Game) IsDraw() bool {
	return g.Status == GameCompleted && g.WinnerTeamID == ""
}

type ScoreEvent struct {
	ID        string
	GameID    string
	MemberID  string
	TeamID    string
	Points    int
	Seq       int
	CreatedAt time.Time
}

func ValidPoints(points int) bool {
	return points >= 1 && points <= 3
}
