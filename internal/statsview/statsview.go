// Package statsview serves charts of the Go runtime statistics over HTTP
// while the emulator runs.
package statsview

import (
	"errors"
	"net/http"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/retroenv/retrogolib/log"
)

// Address is the local address of the statistics server.
const Address = "localhost:18066"

const path = "/debug/statsview"

// Server is a running statistics server.
type Server struct {
	mgr *statsview.ViewManager
}

// Launch starts the statistics server on its own goroutine.
func Launch(logger *log.Logger) *Server {
	viewer.SetConfiguration(viewer.WithAddr(Address))
	s := &Server{mgr: statsview.New()}

	go func() {
		if err := s.mgr.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Statistics server stopped", log.Err(err))
		}
	}()

	logger.Info("Statistics server available", log.String("url", URL()))
	return s
}

// URL returns the address of the charts page.
func URL() string {
	return "http://" + Address + path
}

// Stop shuts the server down.
func (s *Server) Stop() {
	s.mgr.Stop()
}
