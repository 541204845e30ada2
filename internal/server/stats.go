package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ibrahim-qi/sesh-app/internal/apidto"
)

type recapResp struct {
	Session apidto.Session `json:"session"`
	Recap   apidto.Recap   `json:"recap"`
	Text    string         `json:"text"`
}

func (s *Server) Leaderboard(c *gin.Context) {
	boards, err := s.stats.Leaderboard(c.Request.Context(), principal(c))
	if err != nil {
		s.fail(c, err, "error building leaderboard")
		return
	}
	c.JSON(http.StatusOK, apidto.FromLeaderboards(*boards))
}

func (s *Server) MemberStats(c *gin.Context) {
	line, err := s.stats.MemberStats(c.Request.Context(), principal(c), c.Param("memberId"))
	if err != nil {
		s.fail(c, err, "error loading member stats")
		return
	}
	c.JSON(http.StatusOK, apidto.FromMemberLine(*line))
}

func (s *Server) SessionRecap(c *gin.Context) {
	recap, err := s.stats.SessionRecap(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		s.fail(c, err, "error building recap")
		return
	}
	c.JSON(http.StatusOK, recapResp{
		Session: apidto.FromSession(&recap.Session),
		Recap:   apidto.FromRecap(recap.Recap),
		Text:    recap.Text,
	})
}
