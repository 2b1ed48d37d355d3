// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"omnilertlab-service/internal/aggregator"
	custom_errors "omnilertlab-service/internal/errors"
	"omnilertlab-service/internal/intake"
	"omnilertlab-service/internal/model"
	"omnilertlab-service/internal/telegram"
)

// Terminal replies for intercepted commands. These never reach the AI
// gateway; interception is a routing decision made here.
const (
	replyHireHint       = `To dispatch a mission, please use this format: "DISPATCH: Your Name - Your Email - Project Brief"`
	replyDispatchSent   = ">> PACKET ENCRYPTED & SENT TO HQ."
	replyDispatchFailed = ">> UPLINK FAILED. CHECK NETWORK."
	replyDispatchFormat = `>> ERR: INVALID FORMAT. USE: "DISPATCH: Name - Email - Brief"`
)

// ProjectSource serves the aggregated project overview.
type ProjectSource interface {
	FetchOverview(ctx context.Context) aggregator.Overview
}

// ChatGateway is the assistant dispatch surface.
type ChatGateway interface {
	Dispatch(ctx context.Context, messages []model.ChatMessage) model.ChatReply
	Query(ctx context.Context, input string) string
}

// Notifier is the Telegram bridge surface.
type Notifier interface {
	NotifyDispatch(ctx context.Context, d model.Dispatch) bool
	RelayReply(ctx context.Context, sessionID, text string) bool
	VerifySecret(got string) bool
}

// OrderIntake validates and fans out commission orders.
type OrderIntake interface {
	Submit(ctx context.Context, order model.Order) intake.Result
}

// Handler is the container for API dependencies.
type Handler struct {
	projects  ProjectSource
	gateway   ChatGateway
	notifier  Notifier
	intake    OrderIntake
	publisher telegram.Publisher
	logger    *slog.Logger

	cacheTTL time.Duration
	cacheMu  sync.Mutex
	cached   *aggregator.Overview
	cachedAt time.Time
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(projects ProjectSource, gateway ChatGateway, notifier Notifier, orderIntake OrderIntake, publisher telegram.Publisher, cacheTTL time.Duration, logger *slog.Logger) http.Handler {
	h := &Handler{
		projects:  projects,
		gateway:   gateway,
		notifier:  notifier,
		intake:    orderIntake,
		publisher: publisher,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// API Routes
	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/projects", h.getProjects)
		r.Post("/chat", h.postChat)
		r.Post("/terminal", h.postTerminal)
		r.Post("/dispatch", h.postDispatch)
		r.Post("/relay", h.postRelay)
		r.Post("/telegram/webhook", h.postTelegramWebhook)
		r.Post("/orders", h.postOrder)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getProjects serves the aggregated overview behind a single-entry TTL
// cache. The aggregator itself stays stateless; revalidation lives here at
// the HTTP boundary.
// GET /v1/projects
func (h *Handler) getProjects(w http.ResponseWriter, r *http.Request) {
	h.cacheMu.Lock()
	if h.cached != nil && time.Since(h.cachedAt) < h.cacheTTL {
		overview := *h.cached
		h.cacheMu.Unlock()
		h.writeOverview(w, overview)
		return
	}
	h.cacheMu.Unlock()

	overview := h.projects.FetchOverview(r.Context())

	h.cacheMu.Lock()
	h.cached = &overview
	h.cachedAt = time.Now()
	h.cacheMu.Unlock()

	h.writeOverview(w, overview)
}

func (h *Handler) writeOverview(w http.ResponseWriter, overview aggregator.Overview) {
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.cacheTTL.Seconds())))
	respondWithJSON(w, http.StatusOK, overview)
}

type chatRequest struct {
	Messages []model.ChatMessage `json:"messages"`
}

// postChat runs a conversation through the assistant fallback chain. The
// response always carries a displayable reply; provider failures surface
// only as the sentinel.
// POST /v1/chat
func (h *Handler) postChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if len(req.Messages) == 0 {
		respondWithError(w, http.StatusBadRequest, "messages required")
		return
	}
	for _, m := range req.Messages {
		if m.Role != model.RoleUser && m.Role != model.RoleAssistant {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid role %q", m.Role))
			return
		}
	}

	reply := h.gateway.Dispatch(r.Context(), req.Messages)
	respondWithJSON(w, http.StatusOK, reply)
}

type terminalRequest struct {
	Input     string `json:"input"`
	SessionID string `json:"sessionId"`
}

type terminalResponse struct {
	Reply string `json:"reply"`
	Kind  string `json:"kind"` // "ai" for model output, "sys" for intercepted commands
}

// postTerminal handles the terminal widget. Two command patterns are
// intercepted before the gateway is ever consulted: the DISPATCH lead
// protocol and the HIRE/CONTACT hint. Everything else is a free-text query.
// POST /v1/terminal
func (h *Handler) postTerminal(w http.ResponseWriter, r *http.Request) {
	var req terminalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	input := strings.TrimSpace(req.Input)
	if input == "" {
		respondWithError(w, http.StatusBadRequest, "input required")
		return
	}

	upper := strings.ToUpper(input)

	if strings.HasPrefix(upper, "DISPATCH:") {
		d, err := parseDispatch(input[len("DISPATCH:"):])
		if err != nil {
			h.logger.Debug("Rejected dispatch command", "error", err)
			respondWithJSON(w, http.StatusOK, terminalResponse{Reply: replyDispatchFormat, Kind: "sys"})
			return
		}
		if h.notifier.NotifyDispatch(r.Context(), d) {
			respondWithJSON(w, http.StatusOK, terminalResponse{Reply: replyDispatchSent, Kind: "sys"})
		} else {
			respondWithJSON(w, http.StatusOK, terminalResponse{Reply: replyDispatchFailed, Kind: "sys"})
		}
		return
	}

	if upper == "HIRE" || upper == "CONTACT" {
		respondWithJSON(w, http.StatusOK, terminalResponse{Reply: replyHireHint, Kind: "sys"})
		return
	}

	reply := h.gateway.Query(r.Context(), input)
	respondWithJSON(w, http.StatusOK, terminalResponse{Reply: reply, Kind: "ai"})
}

// parseDispatch splits a DISPATCH body into 'Name - Email - Brief'. Identity
// and email are required; a missing brief gets a placeholder.
func parseDispatch(raw string) (model.Dispatch, error) {
	parts := strings.SplitN(raw, "-", 3)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	d := model.Dispatch{Brief: "No brief"}
	if len(parts) > 0 {
		d.Identity = parts[0]
	}
	if len(parts) > 1 {
		d.Email = parts[1]
	}
	if len(parts) > 2 && parts[2] != "" {
		d.Brief = parts[2]
	}

	if d.Identity == "" || d.Email == "" {
		return model.Dispatch{}, &custom_errors.ErrInvalidDispatchFormat{Input: raw}
	}
	return d, nil
}

// postDispatch relays a structured lead directly, for callers that collect
// the fields themselves instead of going through the terminal protocol.
// POST /v1/dispatch
func (h *Handler) postDispatch(w http.ResponseWriter, r *http.Request) {
	var d model.Dispatch
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if d.Identity == "" || d.Email == "" {
		respondWithError(w, http.StatusBadRequest, "identity and email required")
		return
	}
	if d.Brief == "" {
		d.Brief = "No brief"
	}

	ok := h.notifier.NotifyDispatch(r.Context(), d)
	respondWithJSON(w, http.StatusOK, map[string]bool{"success": ok})
}

type relayRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"sessionId"`
}

// postRelay forwards a visitor chat message to the operator channel.
// POST /v1/relay
func (h *Handler) postRelay(w http.ResponseWriter, r *http.Request) {
	var req relayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondWithError(w, http.StatusBadRequest, "text required")
		return
	}

	ok := h.notifier.RelayReply(r.Context(), req.SessionID, req.Text)
	respondWithJSON(w, http.StatusOK, map[string]bool{"success": ok})
}

// postTelegramWebhook receives Bot API delivery callbacks. Valid operator
// replies are handed to the session publisher; visitor-side delivery is the
// publisher's concern.
// POST /v1/telegram/webhook
func (h *Handler) postTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	if !h.notifier.VerifySecret(r.Header.Get(telegram.SecretTokenHeader)) {
		respondWithError(w, http.StatusForbidden, "Forbidden")
		return
	}

	var update telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if update.Message == nil || update.Message.Text == "" {
		respondWithJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	// Operator replies are not yet correlated to a visitor session; the
	// publisher receives them unkeyed until the widget grows a reply target.
	h.publisher.Publish("", update.Message.Text)
	respondWithJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// postOrder validates a commission order and fans it out. Fan-out failures
// never produce a 500; only an unreadable body does.
// POST /v1/orders
func (h *Handler) postOrder(w http.ResponseWriter, r *http.Request) {
	var order model.Order
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		respondWithJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Internal server error",
		})
		return
	}

	result := h.intake.Submit(r.Context(), order)
	if len(result.Errors) > 0 {
		respondWithJSON(w, http.StatusBadRequest, result)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
