package web

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/sweeney/traffic-light/internal/events"
	"github.com/sweeney/traffic-light/internal/logic"
	"github.com/sweeney/traffic-light/internal/status"
)

// StatusOutput is the response of GET /api/status.
type StatusOutput struct {
	Body status.StatusInner
}

// CommandInput is the request body of POST /api/commands.
type CommandInput struct {
	Body struct {
		Line string `json:"line" minLength:"1" maxLength:"256" example:"RED:1500" doc:"Command line as sent over the serial port (BTN1-3, RED/YELLOW/GREEN:<ms>)"`
	}
}

// CommandOutput acknowledges a queued command.
type CommandOutput struct {
	Body struct {
		Line   string `json:"line" example:"RED:1500" doc:"Normalized command line"`
		Queued bool   `json:"queued" doc:"Always true; the controller applies the line on its next tick"`
	}
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Get status",
		Description: "Current mode, lamp, brightness, durations and counters",
		Tags:        []string{"status"},
	}, func(ctx context.Context, _ *struct{}) (*StatusOutput, error) {
		return &StatusOutput{Body: status.Build(s.opts.Tracker.Snapshot())}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "post-command",
		Method:        http.MethodPost,
		Path:          "/api/commands",
		Summary:       "Queue a command",
		Description:   "Queue one command line for the controller. Duration limits are checked when the line is applied.",
		Tags:          []string{"commands"},
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{400, 503},
	}, func(ctx context.Context, input *CommandInput) (*CommandOutput, error) {
		cmd, err := logic.ParseCommand(input.Body.Line)
		if err != nil {
			return nil, huma.Error400BadRequest("Invalid command", err)
		}
		line := cmd.String()
		if !s.opts.Submit(line) {
			log.Warn("Command queue full, dropping", "line", line)
			return nil, huma.Error503ServiceUnavailable("Command queue full")
		}
		out := &CommandOutput{}
		out.Body.Line = line
		out.Body.Queued = true
		return out, nil
	})

	if s.opts.Bus != nil {
		s.registerEventRoutes()
	}
}

func (s *Server) registerEventRoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events stream",
		Description: "Live controller events: status lines, notices, phases, modes, commands and sample errors",
		Tags:        []string{"events"},
	}, map[string]any{
		"status":       events.StatusEvent{},
		"notice":       events.NoticeEvent{},
		"phase":        events.PhaseEvent{},
		"mode":         events.ModeEvent{},
		"command":      events.CommandEvent{},
		"sample-error": events.SampleErrorEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		ch := make(chan any, 16)
		unsub := events.SubscribeAll(s.opts.Bus, ch)
		defer unsub()

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ch:
				if err := send.Data(ev); err != nil {
					return
				}
			}
		}
	})
}
