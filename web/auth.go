// ABOUTME: Google login, callback and logout routes
// ABOUTME: Binds each consent request's state token to the browser session
package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleLogin(c *gin.Context) {
	authURL, state, err := s.auth.BeginLogin(s.cfg.RedirectURL())
	if err != nil {
		s.flashError(c, "Google 로그인을 시작할 수 없습니다", err)
		s.redirect(c, "/calendar")
		return
	}
	currentSession(c).SetOAuthState(state)
	c.Redirect(http.StatusFound, authURL)
}

func (s *Server) handleCallback(c *gin.Context) {
	sess := currentSession(c)
	expected := sess.TakeOAuthState()

	if reason := c.Query("error"); reason != "" {
		s.flashError(c, "Google 로그인이 취소되었습니다 ("+reason+")", nil)
		s.redirect(c, "/calendar")
		return
	}

	state := c.Query("state")
	if expected == "" || state != expected {
		s.flashError(c, "로그인 요청이 만료되었거나 올바르지 않습니다. 다시 시도해 주세요", nil)
		s.redirect(c, "/calendar")
		return
	}

	if _, err := s.auth.Complete(c.Request.Context(), state, c.Query("code")); err != nil {
		s.flashError(c, "Google 로그인에 실패했습니다", err)
		s.redirect(c, "/calendar")
		return
	}

	s.flashInfo(c, "Google 캘린더에 연결되었습니다")
	s.redirect(c, "/calendar")
}

func (s *Server) handleLogout(c *gin.Context) {
	if err := s.auth.Logout(); err != nil {
		s.flashError(c, "로그아웃에 실패했습니다", err)
	} else {
		s.flashInfo(c, "로그아웃되었습니다")
	}
	s.redirect(c, "/calendar")
}
