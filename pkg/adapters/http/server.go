package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/botflow/internal/logging"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/router"
	"github.com/aretw0/botflow/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mitchellh/mapstructure"
)

// maxBodyBytes caps webhook payloads.
const maxBodyBytes = 1 << 20

// Dispatcher runs one update through the bot, replying through sender.
// *botflow.Bot implements it.
type Dispatcher interface {
	DispatchVia(ctx context.Context, sender domain.Sender, update domain.Update) error
}

// Conversations exposes stored conversation state. *session.Manager implements it.
type Conversations interface {
	List(ctx context.Context) ([]string, error)
	Current(ctx context.Context, conversationID string) (string, error)
	Reset(ctx context.Context, conversationID string) error
}

// Server is the webhook front end of a bot.
type Server struct {
	dispatcher    Dispatcher
	conversations Conversations
	routes        func() []router.StateRoute
	logger        *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithConversations enables the /v1/conversations endpoints.
func WithConversations(c Conversations) Option {
	return func(s *Server) {
		s.conversations = c
	}
}

// WithRouteTable enables GET /v1/routes.
func WithRouteTable(describe func() []router.StateRoute) Option {
	return func(s *Server) {
		s.routes = describe
	}
}

// NewHandler creates the HTTP handler:
//
//	POST   /v1/updates                 dispatch one update, replies returned in the body
//	GET    /v1/conversations           list conversations with stored state
//	GET    /v1/conversations/{id}      current state of a conversation
//	DELETE /v1/conversations/{id}      reset a conversation to the base state
//	GET    /v1/routes                  route table
//	GET    /healthz                    liveness
func NewHandler(dispatcher Dispatcher, opts ...Option) http.Handler {
	s := &Server{
		dispatcher: dispatcher,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/updates", s.PostUpdate)
		if s.conversations != nil {
			r.Get("/conversations", s.ListConversations)
			r.Get("/conversations/{id}", s.GetConversation)
			r.Delete("/conversations/{id}", s.ResetConversation)
		}
		if s.routes != nil {
			r.Get("/routes", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, s.routes())
			})
		}
	})
	return r
}

// UpdateResponse is the body returned by POST /v1/updates.
type UpdateResponse struct {
	UpdateID string  `json:"update_id"`
	Replies  []Reply `json:"replies"`
	Error    string  `json:"error,omitempty"`
}

// PostUpdate handles POST /v1/updates.
func (s *Server) PostUpdate(w http.ResponseWriter, r *http.Request) {
	update, err := decodeUpdate(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.logger.Warn("invalid update payload", "err", err)
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, err)
		return
	}

	outbox := &Outbox{}
	err = s.dispatcher.DispatchVia(r.Context(), outbox, update)
	resp := UpdateResponse{UpdateID: update.ID, Replies: outbox.Replies()}
	if err != nil {
		resp.Error = err.Error()
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListConversations handles GET /v1/conversations.
func (s *Server) ListConversations(w http.ResponseWriter, r *http.Request) {
	ids, err := s.conversations.List(r.Context())
	if err != nil {
		if errors.Is(err, session.ErrListNotSupported) {
			writeError(w, http.StatusNotImplemented, err)
			return
		}
		s.logger.Error("list conversations failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"conversations": ids})
}

// GetConversation handles GET /v1/conversations/{id}.
func (s *Server) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := s.conversations.Current(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrStateNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		s.logger.Error("load conversation failed", "conversation_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"conversation_id": id, "state": state})
}

// ResetConversation handles DELETE /v1/conversations/{id}.
func (s *Server) ResetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.conversations.Reset(r.Context(), id); err != nil {
		s.logger.Error("reset conversation failed", "conversation_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeUpdate accepts loosely typed payloads: numeric ids are converted to strings.
// The full payload is kept in Update.Raw unless the sender provided one.
func decodeUpdate(r io.Reader) (domain.Update, error) {
	var payload map[string]any
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return domain.Update{}, fmt.Errorf("invalid request body: %w", err)
	}

	var update domain.Update
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &update,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return domain.Update{}, err
	}
	if err := decoder.Decode(payload); err != nil {
		return domain.Update{}, fmt.Errorf("invalid update: %w", err)
	}

	if update.ConversationID == "" {
		return domain.Update{}, fmt.Errorf("conversation_id is required")
	}
	switch update.Kind {
	case "":
		update.Kind = domain.UpdateMessage
		if update.Callback != nil {
			update.Kind = domain.UpdateCallback
		}
	case domain.UpdateMessage:
	case domain.UpdateCallback:
		if update.Callback == nil {
			return domain.Update{}, fmt.Errorf("callback updates require a callback object")
		}
	default:
		return domain.Update{}, fmt.Errorf("unknown update kind %q", update.Kind)
	}
	if update.Raw == nil {
		update.Raw = payload
	}
	return update, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
