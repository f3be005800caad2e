package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tbxark/viewagent/agent"
	"github.com/tbxark/viewagent/types"
)

const defaultMaxRequestBodySize = 1 << 20

// Handler serves conversations of a Manager over HTTP. Rendered views are not
// sent; clients receive the view descriptors and render them themselves.
type Handler struct {
	manager     *agent.Manager
	maxBodySize int64
}

func NewHandler(manager *agent.Manager) *Handler {
	return &Handler{manager: manager, maxBodySize: defaultMaxRequestBodySize}
}

// Router returns a chi router with the standard middleware and all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", h.HandleListSessions)
		r.Post("/", h.HandleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGetSession)
			r.Delete("/", h.HandleDeleteSession)
			r.Post("/turns", h.HandleSubmitTurn)
			r.Post("/reset", h.HandleResetSession)
			r.Get("/snapshot", h.HandleExportSession)
			r.Put("/snapshot", h.HandleImportSession)
		})
	})
	r.Get("/views", h.HandleListViews)
	r.Get("/views/{type}/schema", h.HandleViewSchema)
}

type sessionResponse struct {
	ID       string            `json:"id"`
	State    agent.State       `json:"state"`
	Busy     bool              `json:"busy"`
	Context  types.UserContext `json:"context"`
	Messages []types.Message   `json:"messages"`
}

func newSessionResponse(conv *agent.Conversation) sessionResponse {
	return sessionResponse{
		ID:       conv.ID(),
		State:    conv.State(),
		Busy:     conv.Busy(),
		Context:  conv.Context(),
		Messages: conv.Messages(),
	}
}

type turnRequest struct {
	Text string `json:"text"`
}

type turnResponse struct {
	SessionID  string                `json:"session_id"`
	User       types.Message         `json:"user"`
	Reply      types.Message         `json:"reply"`
	Descriptor *types.ViewDescriptor `json:"descriptor,omitempty"`
	Fallback   bool                  `json:"fallback"`
	Context    types.UserContext     `json:"context"`
	Error      string                `json:"error,omitempty"`
}

type viewResponse struct {
	Type        types.ViewTypeID `json:"type"`
	Description string           `json:"description"`
	Required    []string         `json:"required"`
	Optional    []string         `json:"optional"`
	Format      string           `json:"format"`
}

func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sessions": h.manager.Sessions()})
}

func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	conv, err := h.manager.Create(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(conv))
}

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	conv, err := h.manager.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(conv))
}

func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSubmitTurn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req turnRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	res, err := h.manager.Submit(r.Context(), id, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := turnResponse{
		SessionID:  id,
		User:       res.User,
		Reply:      res.Reply,
		Descriptor: res.Descriptor,
		Fallback:   res.Fallback,
		Context:    res.Context,
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleResetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.manager.Reset(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	h.HandleGetSession(w, r)
}

func (h *Handler) HandleExportSession(w http.ResponseWriter, r *http.Request) {
	conv, err := h.manager.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv.ExportState())
}

func (h *Handler) HandleImportSession(w http.ResponseWriter, r *http.Request) {
	var snap agent.Snapshot
	if !h.decodeBody(w, r, &snap) {
		return
	}
	conv, err := h.manager.Import(r.Context(), chi.URLParam(r, "id"), snap)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(conv))
}

func (h *Handler) HandleListViews(w http.ResponseWriter, r *http.Request) {
	schemas := h.manager.Pipeline().Registry().Schemas()
	out := make([]viewResponse, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, viewResponse{
			Type:        s.TypeID,
			Description: s.Description,
			Required:    s.RequiredProps(),
			Optional:    s.OptionalProps(),
			Format:      s.Shape(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"views": out})
}

func (h *Handler) HandleViewSchema(w http.ResponseWriter, r *http.Request) {
	id := types.ViewTypeID(chi.URLParam(r, "type"))
	strict := r.URL.Query().Get("strict") != "false"
	schema, err := h.manager.Pipeline().Registry().JSONSchemaString(id, strict)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, schema)
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

type errorResponse struct {
	Error string `json:"error"`
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidSnapshot):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrSessionNotFound), errors.Is(err, types.ErrUnknownViewType):
		return http.StatusNotFound
	case errors.Is(err, types.ErrTurnInProgress):
		return http.StatusConflict
	case errors.Is(err, types.ErrEmptyInput), types.IsSchemaError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
