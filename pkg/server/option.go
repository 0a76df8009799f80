package server

import (
	"errors"

	"go.uber.org/zap"
)

type Option func(s *Server) error

// WithAddr returns an Option which set the server listening address.
func WithAddr(addr string) Option {
	return func(s *Server) error {
		s.Addr = addr
		return nil
	}
}

// WithJob returns an Option which registers a named job on the server.
func WithJob(name string, job JobFunc) Option {
	return func(s *Server) error {
		if name == "" {
			return errors.New("empty job name")
		}
		if job == nil {
			return errors.New("nil job func")
		}
		s.jobs[name] = job
		return nil
	}
}

// WithLogger returns an Option which set the logger for Server.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}
