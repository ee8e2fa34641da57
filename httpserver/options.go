package httpserver

import (
	"contactbook/contact"

	"go.uber.org/zap"
)

type Option func(s *Server)

func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Server) {
		s.Logger = l
	}
}

func WithContactService(svc contact.Service) Option {
	return func(s *Server) {
		s.ContactService = svc
	}
}
