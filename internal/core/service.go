package core

import (
	"context"
	"plantary/internal/infra/persistence/memory"
	"plantary/pkg/domain"
	"sync"
	"time"
)

// Service exposes the transactional ledger operations: catalog management,
// minting, token ownership and the paginated read views.
type Service struct {
	store    domain.PersistentStore
	engine   *domain.RulesEngine
	clock    Clock
	now      func() time.Time
	logger   Logger
	audit    AuditRecorder
	metrics  MetricsRecorder
	tracer   Tracer
	entropy  EntropySource
	payments PaymentVerifier
	prices   PriceTable
	admins   AccessList
	mu       sync.RWMutex
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	clock    Clock
	logger   Logger
	audit    AuditRecorder
	metrics  MetricsRecorder
	tracer   Tracer
	entropy  EntropySource
	payments PaymentVerifier
	prices   PriceTable
	admins   AccessList
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		clock:    ClockFunc(nil),
		logger:   noopLogger{},
		audit:    noopAuditRecorder{},
		metrics:  noopMetricsRecorder{},
		tracer:   noopTracer{},
		entropy:  CryptoEntropy{},
		payments: ExactPayment{},
		prices:   DefaultPrices(),
	}
}

// WithClock overrides the clock used for audit timestamps and durations.
func WithClock(clock Clock) ServiceOption {
	return func(o *serviceOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger injects a structured logger.
func WithLogger(logger Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAuditRecorder injects an audit sink.
func WithAuditRecorder(recorder AuditRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if recorder != nil {
			o.audit = recorder
		}
	}
}

// WithMetricsRecorder injects a metrics sink.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if recorder != nil {
			o.metrics = recorder
		}
	}
}

// WithTracer injects a tracer.
func WithTracer(tracer Tracer) ServiceOption {
	return func(o *serviceOptions) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithEntropySource replaces the per-call randomness provider.
func WithEntropySource(source EntropySource) ServiceOption {
	return func(o *serviceOptions) {
		if source != nil {
			o.entropy = source
		}
	}
}

// WithPaymentVerifier replaces the attached-deposit check.
func WithPaymentVerifier(verifier PaymentVerifier) ServiceOption {
	return func(o *serviceOptions) {
		if verifier != nil {
			o.payments = verifier
		}
	}
}

// WithPrices replaces the mint and harvest price tables.
func WithPrices(prices PriceTable) ServiceOption {
	return func(o *serviceOptions) {
		o.prices = prices
	}
}

// WithAdmins configures the accounts allowed to run admin operations.
func WithAdmins(owner domain.AccountID, collaborators ...domain.AccountID) ServiceOption {
	return func(o *serviceOptions) {
		o.admins = NewAccessList(owner, collaborators...)
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...ServiceOption) *Service {
	options := defaultServiceOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return &Service{
		store:    store,
		engine:   extractRulesEngine(store),
		clock:    options.clock,
		now:      selectNowFunc(store, options.clock),
		logger:   options.logger,
		audit:    options.audit,
		metrics:  options.metrics,
		tracer:   options.tracer,
		entropy:  options.entropy,
		payments: options.payments,
		prices:   options.prices,
		admins:   options.admins,
	}
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *domain.RulesEngine, opts ...ServiceOption) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

// Admins returns the configured admin allowlist.
func (s *Service) Admins() AccessList {
	return s.admins
}

type rulesEngineProvider interface {
	RulesEngine() *domain.RulesEngine
}

type nowFuncProvider interface {
	NowFunc() func() time.Time
}

func extractRulesEngine(store domain.PersistentStore) *domain.RulesEngine {
	if provider, ok := store.(rulesEngineProvider); ok {
		return provider.RulesEngine()
	}
	return nil
}

func selectNowFunc(store domain.PersistentStore, clock Clock) func() time.Time {
	if provider, ok := store.(nowFuncProvider); ok {
		if fn := provider.NowFunc(); fn != nil {
			return func() time.Time { return fn().UTC() }
		}
	}
	if clock != nil {
		return clock.Now
	}
	return func() time.Time { return time.Now().UTC() }
}

// run executes fn inside a store transaction and reports the outcome to the
// tracer, metrics recorder, audit recorder and logger. fn returns the id of
// the entity it touched for audit purposes.
func (s *Service) run(ctx context.Context, op string, fn func(domain.Transaction) (string, error)) (domain.Result, error) {
	ctx, span := s.tracer.Start(ctx, op)
	start := s.now()
	var entityID string
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		id, err := fn(tx)
		entityID = id
		return err
	})
	duration := s.now().Sub(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)
	if err != nil {
		s.logger.Error("core operation failed", "operation", op, "duration", duration, "error", err)
		s.recordAuditError(ctx, op, entityID, duration)
		return res, err
	}
	s.logger.Debug("core operation succeeded", "operation", op, "duration", duration, "entity_id", entityID)
	s.recordAuditSuccess(ctx, op, entityID, duration)
	return res, nil
}

// view executes a read-only callback against a consistent snapshot.
func (s *Service) view(ctx context.Context, fn func(domain.TransactionView) error) error {
	return s.store.View(ctx, fn)
}

type operationMetadata struct {
	entity domain.EntityType
	action domain.Action
}

var operationMetadataTable = map[string]operationMetadata{
	"create_seed":   {entity: domain.EntitySeed, action: domain.ActionCreate},
	"update_seed":   {entity: domain.EntitySeed, action: domain.ActionUpdate},
	"delete_seed":   {entity: domain.EntitySeed, action: domain.ActionDelete},
	"mint_plant":    {entity: domain.EntityVeggie, action: domain.ActionCreate},
	"harvest":       {entity: domain.EntityVeggie, action: domain.ActionCreate},
	"delete_veggie": {entity: domain.EntityVeggie, action: domain.ActionDelete},
	"mint_token":    {entity: domain.EntityToken, action: domain.ActionCreate},
	"transfer":      {entity: domain.EntityToken, action: domain.ActionUpdate},
	"transfer_from": {entity: domain.EntityToken, action: domain.ActionUpdate},
	"grant_access":  {entity: domain.EntityAccessGrant, action: domain.ActionCreate},
	"revoke_access": {entity: domain.EntityAccessGrant, action: domain.ActionDelete},
}

func (s *Service) recordAuditSuccess(ctx context.Context, op, entityID string, duration time.Duration) {
	s.recordAudit(ctx, op, entityID, AuditStatusSuccess, duration)
}

func (s *Service) recordAuditError(ctx context.Context, op, entityID string, duration time.Duration) {
	s.recordAudit(ctx, op, entityID, AuditStatusError, duration)
}

func (s *Service) recordAudit(ctx context.Context, op, entityID string, status AuditStatus, duration time.Duration) {
	meta, ok := operationMetadataTable[op]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: op,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		Status:    status,
		Duration:  duration,
		Timestamp: s.now(),
	})
}
