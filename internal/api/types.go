package api

import (
	"github.com/samcharles93/yukari/internal/memory"
	"github.com/samcharles93/yukari/internal/session"
)

// CommandRequest is the body of POST /v1/commands/:name. Args may be omitted
// for commands that take none.
type CommandRequest struct {
	Args []string `json:"args,omitempty"`
}

type CommandResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created_at"`
	Command string `json:"command"`
	Reply   string `json:"reply"`
}

type MemoriesResponse struct {
	Object   string         `json:"object"`
	Memories []memory.Entry `json:"memories"`
}

type SettingsResponse struct {
	Object   string           `json:"object"`
	Settings session.Settings `json:"settings"`
	Busy     bool             `json:"busy"`
}

type StopResponse struct {
	Stopped bool `json:"stopped"`
}

type ResponseError struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
}

type ErrorResponse struct {
	Error ResponseError `json:"error"`
}
