package app

import (
	"context"
	"sync"
	"time"

	"github.com/Abbas-Dev-786/securitifi/internal/store"
	"github.com/Abbas-Dev-786/securitifi/pkg/oracleclient"
	"github.com/google/uuid"
)

// Fixed identities and clock shared by service tests.
var (
	testNow       = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	custodyTestID = uuid.MustParse("00000000-0000-0000-0000-00000000c0de")
)

type oracleStub struct {
	price      *oracleclient.PriceQuote
	priceErr   error
	reserve    *oracleclient.ReserveStatus
	reserveErr error
}

func (o *oracleStub) LatestPrice(ctx context.Context, assetID int64) (*oracleclient.PriceQuote, error) {
	if o.priceErr != nil {
		return nil, o.priceErr
	}
	return o.price, nil
}

func (o *oracleStub) LatestReserveStatus(ctx context.Context, assetID int64) (*oracleclient.ReserveStatus, error) {
	if o.reserveErr != nil {
		return nil, o.reserveErr
	}
	return o.reserve, nil
}

// freshQuote returns a quote stamped at the test clock, i.e. never stale.
func freshQuote(value int64) *oracleclient.PriceQuote {
	return &oracleclient.PriceQuote{Value: value, Timestamp: testNow}
}

func freshReserve(attested int64, confidence int) *oracleclient.ReserveStatus {
	return &oracleclient.ReserveStatus{AttestedValue: attested, ConfidencePercent: confidence, Timestamp: testNow}
}

type publishedMessage struct {
	exchange   string
	routingKey string
	body       interface{}
}

type publisherStub struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

func (p *publisherStub) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{exchange: exchange, routingKey: routingKey, body: body})
	return nil
}

func (p *publisherStub) Close() {}

func (p *publisherStub) byRoutingKey(key string) []publishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedMessage
	for _, m := range p.messages {
		if m.routingKey == key {
			out = append(out, m)
		}
	}
	return out
}

// newTestService wires a service around stubs with a fixed clock: LTV 75%,
// 15 minute price window, 1 hour reserve window, 80% confidence floor,
// 30 day distribution period, local chain "atlas" selector 1000.
func newTestService(repo store.Repository, oracle OracleGateway, producer *publisherStub, roles *Roles) *Service {
	if roles == nil {
		roles = NewRoles(nil, nil)
	}
	svc := NewService(
		repo, oracle, producer, roles,
		custodyTestID,
		"atlas", 1000,
		7500,
		15*time.Minute,
		time.Hour,
		80,
		30*24*time.Hour,
	)
	svc.now = func() time.Time { return testNow }
	return svc
}
