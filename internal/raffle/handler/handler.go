// Package handler exposes the raffle JSON API over chi. It stays a thin
// transport: request shapes are validated here, raffle semantics live in the
// service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"tombola/internal/collectible"
	"tombola/internal/events"
	"tombola/internal/raffle/models"
	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/platform/httputil"
	"tombola/pkg/requestcontext"
)

// Service defines the raffle operations the API exposes.
type Service interface {
	Enter(ctx context.Context, accounts []domain.AccountID, payment domain.Amount) (models.EntryReceipt, error)
	Refund(ctx context.Context, slotIndex int) error
	Settle(ctx context.Context) (models.SettlementOutcome, error)
	Status(ctx context.Context) models.Status
	ActiveIndexOf(ctx context.Context, account domain.AccountID) (int, bool)
	History(ctx context.Context, limit int) ([]models.EpochRecord, error)
}

// CollectibleLister lists minted tokens per owner.
type CollectibleLister interface {
	ListByOwner(ctx context.Context, owner domain.AccountID) []collectible.Token
}

// TokenIssuer mints entrant access tokens for the development flow.
type TokenIssuer interface {
	GenerateAccessToken(account domain.AccountID, expiresIn time.Duration) (string, error)
}

// EventLog exposes recently emitted raffle events for operator introspection.
type EventLog interface {
	List() []events.Event
	ByAction(action events.Action) []events.Event
}

// Guards carries the middlewares mounted around each endpoint class. A nil
// guard mounts its group unprotected; EnterLimit is nil when rate limiting
// is disabled.
type Guards struct {
	Entrant    func(http.Handler) http.Handler
	Operator   func(http.Handler) http.Handler
	EnterLimit func(http.Handler) http.Handler
}

// Config carries route guards and the development-token policy.
type Config struct {
	Guards Guards

	// DevTokens enables POST /auth/token. Never enable outside development:
	// the endpoint mints a token for any account id it is handed.
	DevTokens bool

	// TokenTTL bounds dev token lifetime. Zero means one hour.
	TokenTTL time.Duration

	// EventLog, when set, mounts GET /raffle/events on the operator group.
	EventLog EventLog
}

// Handler wires the raffle endpoints to the raffle service.
type Handler struct {
	service      Service
	collectibles CollectibleLister
	tokens       TokenIssuer
	cfg          Config
	logger       *slog.Logger
}

// New constructs the API handler.
func New(service Service, collectibles CollectibleLister, tokens TokenIssuer, cfg Config, logger *slog.Logger) *Handler {
	return &Handler{
		service:      service,
		collectibles: collectibles,
		tokens:       tokens,
		cfg:          cfg,
		logger:       logger,
	}
}

// Register mounts the raffle API on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/raffle", h.HandleStatus)
	r.Post("/auth/token", h.HandleToken)

	r.Group(func(r chi.Router) {
		if h.cfg.Guards.Entrant != nil {
			r.Use(h.cfg.Guards.Entrant)
		}
		r.Get("/raffle/entrants/{account}", h.HandleEntrant)
		r.Get("/collectibles/{account}", h.HandleCollectibles)
		r.Post("/raffle/slots/{index}/refund", h.HandleRefund)

		r.Group(func(r chi.Router) {
			if h.cfg.Guards.EnterLimit != nil {
				r.Use(h.cfg.Guards.EnterLimit)
			}
			r.Post("/raffle/entries", h.HandleEnter)
		})
	})

	r.Group(func(r chi.Router) {
		if h.cfg.Guards.Operator != nil {
			r.Use(h.cfg.Guards.Operator)
		}
		r.Post("/raffle/settlement", h.HandleSettle)
		r.Get("/raffle/history", h.HandleHistory)
		if h.cfg.EventLog != nil {
			r.Get("/raffle/events", h.HandleEvents)
		}
	})
}

// HandleStatus handles GET /raffle.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, FromStatus(h.service.Status(r.Context())))
}

// HandleEnter handles POST /raffle/entries.
func (h *Handler) HandleEnter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[EnterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	receipt, err := h.service.Enter(ctx, req.ParsedAccounts(), req.ParsedPayment())
	if err != nil {
		h.logger.WarnContext(ctx, "entry rejected",
			"request_id", requestID,
			"batch_size", len(req.Accounts),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "entries accepted",
		"request_id", requestID,
		"epoch", receipt.Epoch,
		"slots", len(receipt.Slots),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromReceipt(receipt))
}

// HandleRefund handles POST /raffle/slots/{index}/refund.
func (h *Handler) HandleRefund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || idx < 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "slot index must be a non-negative integer"))
		return
	}

	if err := h.service.Refund(ctx, idx); err != nil {
		h.logger.WarnContext(ctx, "refund rejected",
			"request_id", requestID,
			"slot", idx,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, RefundResponse{Slot: idx, Refunded: true})
}

// HandleEntrant handles GET /raffle/entrants/{account}.
func (h *Handler) HandleEntrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, err := domain.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "account must be a valid uuid"))
		return
	}

	idx, ok := h.service.ActiveIndexOf(ctx, account)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "account holds no slot this epoch"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, EntrantResponse{Account: account.String(), Slot: idx})
}

// HandleCollectibles handles GET /collectibles/{account}.
func (h *Handler) HandleCollectibles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, err := domain.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "account must be a valid uuid"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromTokens(account, h.collectibles.ListByOwner(ctx, account)))
}

// HandleSettle handles POST /raffle/settlement.
func (h *Handler) HandleSettle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	outcome, err := h.service.Settle(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "settlement rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "settlement completed",
		"request_id", requestID,
		"epoch", outcome.Epoch,
		"winner", outcome.Winner.String(),
		"rarity", string(outcome.Rarity),
	)
	httputil.WriteJSON(w, http.StatusOK, FromOutcome(outcome))
}

// HandleHistory handles GET /raffle/history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = min(n, 100)
	}

	records, err := h.service.History(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "history lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecords(records))
}

// HandleEvents handles GET /raffle/events. It reads the in-process event log,
// so it reflects this instance only, not the full Kafka stream.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = min(n, 500)
	}

	var recent []events.Event
	if action := r.URL.Query().Get("action"); action != "" {
		recent = h.cfg.EventLog.ByAction(events.Action(action))
	} else {
		recent = h.cfg.EventLog.List()
	}
	if len(recent) > limit {
		recent = recent[len(recent)-limit:]
	}

	httputil.WriteJSON(w, http.StatusOK, FromEvents(recent))
}

// HandleToken handles POST /auth/token. Development only.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if !h.cfg.DevTokens {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "token minting is disabled"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[TokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	ttl := h.tokenTTL()
	token, err := h.tokens.GenerateAccessToken(req.ParsedAccount(), ttl)
	if err != nil {
		h.logger.ErrorContext(ctx, "token minting failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "mint access token"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
	})
}

func (h *Handler) tokenTTL() time.Duration {
	if h.cfg.TokenTTL > 0 {
		return h.cfg.TokenTTL
	}
	return time.Hour
}
