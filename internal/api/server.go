// Package api exposes the command dispatcher over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/yukari/internal/logger"
	"github.com/samcharles93/yukari/internal/memory"
	"github.com/samcharles93/yukari/internal/session"
)

// Dispatcher runs named commands. *command.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, args []string) (string, error)
	Resolve(name string) (string, bool)
	Stop() bool
}

// State exposes read-only views for the GET endpoints.
type State interface {
	Settings() session.Settings
	Busy() bool
}

type MemoryLister interface {
	All() []memory.Entry
}

type Server struct {
	dispatcher Dispatcher
	state      State
	memories   MemoryLister
	log        logger.Logger
	clock      func() time.Time
}

func NewServer(d Dispatcher, state State, memories MemoryLister, log logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		dispatcher: d,
		state:      state,
		memories:   memories,
		log:        log.With(logger.ComponentKey, "http"),
		clock:      time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.POST("/v1/commands/:name", s.handleCommand)
	e.POST("/v1/stop", s.handleStop)
	e.GET("/v1/memories", s.handleMemories)
	e.GET("/v1/settings", s.handleSettings)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCommand(c *echo.Context) error {
	name, ok := s.dispatcher.Resolve(c.Param("name"))
	if !ok {
		return writeError(c, http.StatusNotFound, "not_found_error", "unknown command: "+c.Param("name"))
	}
	req, err := decodeJSON[CommandRequest](c.Request().Body)
	if err != nil {
		return writeDomainError(c, newInvalidRequest("invalid JSON body: "+err.Error()))
	}

	id := "cmd_" + uuid.NewString()
	log := s.log.With("request_id", id, "command", name)
	ctx := logger.WithContext(c.Request().Context(), log)

	reply, err := s.dispatcher.Dispatch(ctx, name, req.Args)
	if err != nil {
		log.Warn("command failed", "error", err)
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, CommandResponse{
		ID:      id,
		Object:  "command.result",
		Created: s.clock().Unix(),
		Command: name,
		Reply:   reply,
	})
}

func (s *Server) handleStop(c *echo.Context) error {
	return c.JSON(http.StatusOK, StopResponse{Stopped: s.dispatcher.Stop()})
}

func (s *Server) handleMemories(c *echo.Context) error {
	entries := s.memories.All()
	if entries == nil {
		entries = []memory.Entry{}
	}
	return c.JSON(http.StatusOK, MemoriesResponse{Object: "list", Memories: entries})
}

func (s *Server) handleSettings(c *echo.Context) error {
	return c.JSON(http.StatusOK, SettingsResponse{
		Object:   "settings",
		Settings: s.state.Settings(),
		Busy:     s.state.Busy(),
	})
}
