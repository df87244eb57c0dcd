// Package server exposes the face segmentation pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/esimov/faceseg"
)

const shutdownTimeout = 5 * time.Second

// Server serves segmentation requests with a shared Processor.
type Server struct {
	cfg       Config
	processor *faceseg.Processor
	defaults  faceseg.Config
	log       logrus.FieldLogger
	router    *gin.Engine
}

// New returns a server running p. The processor detector may be nil, in which
// case every request has to carry its own landmark document. defaults is the
// configuration the query parameters are applied to.
func New(cfg Config, p *faceseg.Processor, defaults faceseg.Config) *Server {
	log := p.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		cfg:       cfg,
		processor: p,
		defaults:  defaults,
		log:       log,
		router:    gin.Default(),
	}
	setupRoutes(s.router, s)
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves requests until ctx is canceled, then shuts the server down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.router,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("server exiting")
	return nil
}
