package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/khaledhikmat/nsfw-go/pipeline"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	svcs       pipeline.ServicesFactory
	resolver   *pipeline.Resolver
	sampler    *pipeline.Sampler
	router     http.Handler
	httpServer *http.Server
}

func NewServer(svcs pipeline.ServicesFactory, alertStream chan pipeline.AlertData) *Server {
	s := &Server{
		svcs:     svcs,
		resolver: pipeline.NewResolver(svcs, alertStream),
		sampler:  pipeline.NewSampler(svcs, alertStream),
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops. Batch responses are streamed, so the
// write timeout bounds a whole batch rather than a single write.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%s", s.svcs.CfgSvc.GetServerPort()),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      s.svcs.CfgSvc.GetServerWriteTimeout(),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
