package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"visitor-relay/internal/models"
	"visitor-relay/internal/relay/orchestrator"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Hello, James."))
}

// handleVisitor is the webhook boundary. It maps the orchestrator's
// terminal state onto HTTP: Done -> 200 + canonical link, Ignored -> empty
// 200, Rejected/Failed -> the error's status with no secret material in
// the body.
func (s *Server) handleVisitor(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}

	in := orchestrator.Input{
		LocationCode: chi.URLParam(r, "location"),
		Notification: models.InboundNotification{
			EntryPayload: r.PostFormValue("entry"),
			Status:       r.PostFormValue("status"),
			Timestamp:    r.PostFormValue("timestamp"),
			Token:        r.PostFormValue("token"),
			Signature:    r.PostFormValue("signature"),
		},
	}

	// Work already dispatched to external APIs may finish even if the
	// caller disconnects; orphaned partial posts are worse than a wasted
	// response.
	result := s.orch.Execute(context.WithoutCancel(r.Context()), in)

	switch result.State {
	case orchestrator.StateDone:
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(result.Link))
	case orchestrator.StateIgnored:
		w.WriteHeader(http.StatusOK)
	default:
		http.Error(w, result.Err.Message, result.Err.HTTPStatus())
	}
}
