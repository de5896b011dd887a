/**
 * @description
 * This file contains the core of the settlement engine's business logic. The
 * `Service` struct orchestrates the five components (ownership ledger,
 * property registry, lending engine, rent distribution vault, and cross-chain
 * bridge) around one shared repository, so every balance mutation flows
 * through a single view of supply. Component methods live in sibling files
 * (ledger.go, registry.go, lending.go, rent.go, bridge.go).
 *
 * @dependencies
 * - context, errors, log, time: Standard Go libraries.
 * - github.com/google/uuid: Account identifiers.
 * - internal/domain, internal/store: Domain models and data access.
 * - pkg/oracleclient, pkg/rabbitmq: Oracle reads and event publishing.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Abbas-Dev-786/securitifi/internal/store"
	"github.com/Abbas-Dev-786/securitifi/pkg/oracleclient"
	"github.com/Abbas-Dev-786/securitifi/pkg/rabbitmq"
	"github.com/google/uuid"
)

const (
	// EventsExchange carries settlement events for downstream consumers.
	EventsExchange = "securitifi.events"
	// BridgeExchange is the cross-chain transport channel.
	BridgeExchange = "securitifi.bridge"
)

// ErrRateLimited is returned when a caller exceeds the configured write rate.
var ErrRateLimited = errors.New("rate limit exceeded")

// OracleGateway is the read-only price and reserve-attestation source. It is
// satisfied by oracleclient.Client and stubbed in tests.
type OracleGateway interface {
	LatestPrice(ctx context.Context, assetID int64) (*oracleclient.PriceQuote, error)
	LatestReserveStatus(ctx context.Context, assetID int64) (*oracleclient.ReserveStatus, error)
}

// Service provides the core business logic for the settlement engine.
type Service struct {
	repo          store.Repository
	oracle        OracleGateway
	eventProducer rabbitmq.Publisher
	roles         *Roles

	custodyID     uuid.UUID
	chainName     string
	chainSelector uint64

	ltvBps               int64
	priceMaxAge          time.Duration
	reserveMaxAge        time.Duration
	minReserveConfidence int
	distributionPeriod   time.Duration

	rateLimiter        RateLimiter
	transferRatePerMin int

	// now is swapped out in tests for deterministic clocks.
	now func() time.Time
}

// NewService creates a new settlement service instance.
func NewService(
	repo store.Repository,
	oracle OracleGateway,
	producer rabbitmq.Publisher,
	roles *Roles,
	custodyID uuid.UUID,
	chainName string,
	chainSelector uint64,
	ltvBps int64,
	priceMaxAge time.Duration,
	reserveMaxAge time.Duration,
	minReserveConfidence int,
	distributionPeriod time.Duration,
) *Service {
	return &Service{
		repo:                 repo,
		oracle:               oracle,
		eventProducer:        producer,
		roles:                roles,
		custodyID:            custodyID,
		chainName:            chainName,
		chainSelector:        chainSelector,
		ltvBps:               ltvBps,
		priceMaxAge:          priceMaxAge,
		reserveMaxAge:        reserveMaxAge,
		minReserveConfidence: minReserveConfidence,
		distributionPeriod:   distributionPeriod,
		now:                  time.Now,
	}
}

// SetRateLimiter installs a distributed rate limiter for write endpoints.
// Without one, rate limiting is disabled.
func (s *Service) SetRateLimiter(limiter RateLimiter, transferPerMinute int) {
	s.rateLimiter = limiter
	s.transferRatePerMin = transferPerMinute
}

// publishEvent emits a settlement event; publishing failures are logged and
// never fail the underlying operation, which has already committed.
func (s *Service) publishEvent(ctx context.Context, routingKey string, body interface{}) {
	if s.eventProducer == nil {
		return
	}
	if err := s.eventProducer.Publish(ctx, EventsExchange, routingKey, body); err != nil {
		log.Printf("level=warn component=service msg=\"event publish failed\" routing_key=%s err=%v", routingKey, err)
	}
}

// freshPrice returns the latest oracle price for the asset, refusing answers
// older than the lending staleness window.
func (s *Service) freshPrice(ctx context.Context, assetID int64) (*oracleclient.PriceQuote, error) {
	quote, err := s.oracle.LatestPrice(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("price feed for asset %d unavailable: %w", assetID, err)
	}
	if quote.Age(s.now()) > s.priceMaxAge {
		return nil, fmt.Errorf("price for asset %d: %w", assetID, store.ErrStaleData)
	}
	return quote, nil
}

// consumeRateLimit enforces the per-subject write budget when a limiter is
// configured.
func (s *Service) consumeRateLimit(ctx context.Context, scope string, subject uuid.UUID) error {
	if s.rateLimiter == nil || s.transferRatePerMin <= 0 {
		return nil
	}
	count, _, err := s.rateLimiter.ConsumeRateLimit(ctx, scope, subject.String(), s.transferRatePerMin, time.Minute)
	if err != nil {
		// Limiter outages must not block settlement traffic.
		log.Printf("level=warn component=service msg=\"rate limiter unavailable; allowing request\" scope=%s err=%v", scope, err)
		return nil
	}
	if count > s.transferRatePerMin {
		return fmt.Errorf("%s for %s: %w", scope, subject, ErrRateLimited)
	}
	return nil
}
