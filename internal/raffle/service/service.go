// Package service implements the raffle lifecycle: batch entry, refund and
// settlement over the external treasury, randomness source and collectible
// minter.
//
// Operations serialize on a single mutex. Outbound transfers run with the
// mutex released and an interaction-depth counter raised; a recipient that
// calls back into the raffle during a transfer observes fully mutated state
// (effects before interactions) or, where interleaving would poison
// rollback, is turned away with a conflict error.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"tombola/internal/events"
	"tombola/internal/raffle/ledger"
	rafflemetrics "tombola/internal/raffle/metrics"
	"tombola/internal/raffle/models"
	"tombola/internal/raffle/ports"
	"tombola/internal/raffle/registry"
	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/requestcontext"
)

var tracer = otel.Tracer("tombola/internal/raffle/service")

// Policy fixes the round parameters at construction. Fee, duration and split
// are deployment policy; correctness only requires a positive fee and a
// split within [0, 10000] basis points.
type Policy struct {
	EntranceFee      domain.Amount
	MinRoundDuration time.Duration
	PrizeShareBps    int64
	Operator         domain.AccountID
}

// Service is one raffle line.
type Service struct {
	mu sync.Mutex
	// depth counts operations currently blocked on an outbound interaction.
	// While it is non-zero the mutex is free but rollback state is live, so
	// Enter and Settle turn callers away instead of interleaving.
	depth int

	policy   Policy
	state    models.State
	openedAt time.Time

	prevWinner domain.AccountID
	prevRarity models.Rarity

	registry *registry.Registry
	pool     *ledger.Ledger

	treasury ports.Treasury
	random   ports.RandomnessSource
	minter   ports.CollectibleMinter
	archive  ports.ArchiveStore

	publisher events.Publisher
	logger    *slog.Logger
	metrics   *rafflemetrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPublisher sets the domain event publisher.
func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithMetrics sets the raffle metrics.
func WithMetrics(m *rafflemetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs an Open raffle at epoch 1.
func New(policy Policy, treasury ports.Treasury, random ports.RandomnessSource, minter ports.CollectibleMinter, archive ports.ArchiveStore, opts ...Option) *Service {
	s := &Service{
		policy:   policy,
		state:    models.StateOpen,
		openedAt: time.Now(),
		registry: registry.New(),
		pool:     ledger.New(),
		treasury: treasury,
		random:   random,
		minter:   minter,
		archive:  archive,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func errBusy() error {
	return dErrors.New(dErrors.CodeConflict, "another raffle operation is in progress")
}

// emit buffers a domain event. Emission is advisory: a publisher failure is
// logged and never unwinds the operation that produced the event.
func (s *Service) emit(ctx context.Context, action events.Action, epoch uint64, account string, metadata map[string]string) {
	if s.publisher == nil {
		return
	}
	if rid := requestcontext.RequestID(ctx); rid != "" {
		if metadata == nil {
			metadata = make(map[string]string, 1)
		}
		metadata["request_id"] = rid
	}
	event := events.New(action, epoch, account, requestcontext.Now(ctx), metadata)
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "emit raffle event", "action", string(action), "error", err)
	}
}
