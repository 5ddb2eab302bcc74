package auth

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const clientIDKey = "client_id"

type Session struct {
	sessions.Session
}

func LoadSession(c *gin.Context) *Session {
	return &Session{
		Session: sessions.Default(c),
	}
}

// ClientID returns a stable id for this browser session, creating one on
// first use. It identifies the dashboard client for engagement tracking;
// user authentication itself lives outside this service
func (s *Session) ClientID() string {
	if id := s.Get(clientIDKey); id != nil {
		if str, ok := id.(string); ok && str != "" {
			return str
		}
	}
	id := uuid.NewString()
	s.Set(clientIDKey, id)
	_ = s.Save()
	return id
}

func (s *Session) End() {
	s.Delete(clientIDKey)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = s.Save()
}
