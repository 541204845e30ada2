package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ibrahim-qi/sesh-app/internal/apidto"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
	"github.com/ibrahim-qi/sesh-app/internal/service"
)

type teamReq struct {
	Name      string   `json:"name" binding:"required,max=40"`
	Color     string   `json:"color" binding:"omitempty,teamcolor"`
	CaptainID string   `json:"captain_id"`
	PlayerIDs []string `json:"player_ids"`
}

type scheduleReq struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
	Location    string    `json:"location" binding:"max=120"`
	HostID      string    `json:"host_id"`
	Teams       []teamReq `json:"teams" binding:"required,min=2,dive"`
}

type updateTeamReq struct {
	Name  string `json:"name" binding:"max=40"`
	Color string `json:"color" binding:"omitempty,teamcolor"`
}

type sessionDetailResp struct {
	Session apidto.Session `json:"session"`
	Host    *apidto.Member `json:"host,omitempty"`
	Teams   []apidto.Team  `json:"teams"`
	Games   []apidto.Game  `json:"games"`
}

type sessionsResp struct {
	Sessions []apidto.Session `json:"sessions"`
}

func fromSessionDetail(d *service.SessionDetail) sessionDetailResp {
	resp := sessionDetailResp{
		Session: apidto.FromSession(&d.Session),
		Teams:   apidto.FromTeams(d.Teams),
		Games:   apidto.FromGames(d.Games),
	}
	if d.Host != nil {
		host := apidto.FromMember(d.Host)
		resp.Host = &host
	}
	return resp
}

func (s *Server) ListSessions(c *gin.Context) {
	sessions, err := s.sessions.ListSessions(c.Request.Context(), principal(c))
	if err != nil {
		s.fail(c, err, "error listing sessions")
		return
	}
	c.JSON(http.StatusOK, sessionsResp{Sessions: apidto.FromSessions(sessions)})
}

func (s *Server) ScheduleSession(c *gin.Context) {
	var req scheduleReq
	if !s.bind(c, &req) {
		return
	}

	in := service.ScheduleInput{
		ScheduledAt: req.ScheduledAt,
		Location:    req.Location,
		HostID:      req.HostID,
		Teams:       make([]service.TeamInput, 0, len(req.Teams)),
	}
	for _, t := range req.Teams {
		in.Teams = append(in.Teams, service.TeamInput{
			Name:      t.Name,
			Color:     domain.TeamColor(t.Color),
			CaptainID: t.CaptainID,
			PlayerIDs: t.PlayerIDs,
		})
	}

	detail, err := s.sessions.ScheduleSession(c.Request.Context(), principal(c), in)
	if err != nil {
		s.fail(c, err, "error scheduling session")
		return
	}
	c.JSON(http.StatusCreated, fromSessionDetail(detail))
}

func (s *Server) NextSession(c *gin.Context) {
	session, err := s.sessions.NextSession(c.Request.Context(), principal(c))
	if err != nil {
		s.fail(c, err, "error loading next session")
		return
	}
	c.JSON(http.StatusOK, apidto.FromSession(session))
}

func (s *Server) GetSession(c *gin.Context) {
	detail, err := s.sessions.GetSession(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		s.fail(c, err, "error loading session")
		return
	}
	c.JSON(http.StatusOK, fromSessionDetail(detail))
}

func (s *Server) DeleteSession(c *gin.Context) {
	if err := s.sessions.DeleteSession(c.Request.Context(), principal(c), c.Param("id")); err != nil {
		s.fail(c, err, "error deleting session")
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) UpdateTeam(c *gin.Context) {
	var req updateTeamReq
	if !s.bind(c, &req) {
		return
	}

	team, err := s.sessions.UpdateTeam(c.Request.Context(), principal(c), c.Param("id"), c.Param("teamId"), req.Name, domain.TeamColor(req.Color))
	if err != nil {
		s.fail(c, err, "error updating team")
		return
	}
	c.JSON(http.StatusOK, apidto.FromTeam(team))
}
