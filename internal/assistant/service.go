package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Hezi777/barber-pro/internal/appointments"
	"github.com/Hezi777/barber-pro/internal/conversation"
	"github.com/Hezi777/barber-pro/internal/conversations"
	"github.com/Hezi777/barber-pro/internal/customers"
	"github.com/Hezi777/barber-pro/internal/events"
	"github.com/Hezi777/barber-pro/internal/messaging"
	"github.com/Hezi777/barber-pro/internal/observability/metrics"
	"github.com/Hezi777/barber-pro/pkg/logging"
)

const (
	defaultService      = "haircut"
	defaultCustomerName = "Guest"
	defaultProvider     = "whatsapp"
)

// Inbound and Outcome are the messaging-layer types the service consumes and produces.
type (
	Inbound = messaging.InboundMessage
	Outcome = messaging.ProcessResult
)

// Service drives one booking conversation per customer phone.
type Service struct {
	engine        *conversation.Engine
	conversations conversations.Repository
	appointments  appointments.Repository
	customers     customers.Repository
	messages      messaging.MessageLog
	publisher     events.Publisher
	processed     events.ProcessedStore
	locker        Locker
	metrics       *metrics.ConversationMetrics
	logger        *logging.Logger
	tracer        trace.Tracer

	clock       func() time.Time
	location    *time.Location
	idleTimeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

func WithEngine(engine *conversation.Engine) Option {
	return func(s *Service) {
		if engine != nil {
			s.engine = engine
		}
	}
}

func WithMessageLog(log messaging.MessageLog) Option {
	return func(s *Service) { s.messages = log }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithProcessedStore(store events.ProcessedStore) Option {
	return func(s *Service) { s.processed = store }
}

func WithLocker(l Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

func WithMetrics(m *metrics.ConversationMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLocation sets the shop timezone used to resolve "today" and weekdays.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithIdleTimeout restarts conversations untouched for longer than d. Zero disables it.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Service) { s.idleTimeout = d }
}

// NewService wires the orchestrator. The three repositories are required.
func NewService(convs conversations.Repository, appts appointments.Repository, custs customers.Repository, opts ...Option) *Service {
	if convs == nil || appts == nil || custs == nil {
		panic("assistant: repositories cannot be nil")
	}
	s := &Service{
		engine:        conversation.NewEngine(),
		conversations: convs,
		appointments:  appts,
		customers:     custs,
		locker:        NewMemoryLocker(),
		logger:        logging.Default(),
		tracer:        otel.Tracer("barberpro.internal.assistant"),
		clock:         time.Now,
		location:      time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleInbound processes one customer message end to end.
func (s *Service) HandleInbound(ctx context.Context, msg Inbound) (*Outcome, error) {
	started := s.clock()
	provider := strings.ToLower(strings.TrimSpace(msg.Provider))
	if provider == "" {
		provider = defaultProvider
	}

	ctx, span := s.tracer.Start(ctx, "assistant.handle_inbound", trace.WithAttributes(
		attribute.String("provider", provider),
	))
	defer span.End()

	out, err := s.handle(ctx, provider, msg)
	status := "ok"
	switch {
	case err != nil:
		status = "error"
		span.RecordError(err)
	case out.Duplicate:
		status = "duplicate"
	}
	s.metrics.ObserveInbound(provider, status)
	s.metrics.ObserveLatency(provider, s.clock().Sub(started).Seconds())
	return out, err
}

func (s *Service) handle(ctx context.Context, provider string, msg Inbound) (*Outcome, error) {
	phone := strings.TrimSpace(msg.Phone)
	if !messaging.IsE164(phone) {
		return nil, fmt.Errorf("assistant: %q: %w", msg.Phone, messaging.ErrInvalidPhone)
	}
	body := strings.TrimSpace(msg.Body)

	unlock, err := s.locker.Lock(ctx, "conversation:"+phone)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if msg.ProviderMessageID != "" && s.processed != nil {
		seen, err := s.processed.AlreadyProcessed(ctx, provider, msg.ProviderMessageID)
		if err != nil {
			return nil, fmt.Errorf("assistant: check processed: %w", err)
		}
		if seen {
			s.logger.Info("duplicate inbound message skipped", "provider", provider, "message_id", msg.ProviderMessageID)
			return &Outcome{Duplicate: true}, nil
		}
	}

	if err := s.logMessage(ctx, phone, messaging.DirectionIn, body, msg.Raw); err != nil {
		return nil, err
	}
	if _, err := s.customers.Upsert(ctx, phone, ""); err != nil {
		return nil, fmt.Errorf("assistant: upsert customer: %w", err)
	}

	now := s.clock()
	rec, err := s.loadConversation(ctx, phone, now)
	if err != nil {
		return nil, err
	}

	result := s.engine.Process(rec.State, rec.Context, body, now.In(s.location))
	s.metrics.ObserveTransition(rec.State.String(), result.State.String())
	if result.State == rec.State && rec.State.Awaiting() {
		s.metrics.ObserveParseMiss(rec.State.String())
	}

	next := conversations.Record{Phone: phone, State: result.State, Context: result.Context, UpdatedAt: now.UTC()}
	if err := s.conversations.Put(ctx, next); err != nil {
		return nil, fmt.Errorf("assistant: save conversation: %w", err)
	}
	// Once the new state is stored a redelivery must not apply the text again.
	s.markProcessed(ctx, provider, msg.ProviderMessageID)

	outcome := &Outcome{Reply: result.Reply, State: result.State.String()}
	if result.State == conversation.StateConfirmed {
		appt, err := s.book(ctx, phone, result.Context, now)
		if err != nil {
			return nil, err
		}
		outcome.Appointment = appt
	}

	if err := s.logMessage(ctx, phone, messaging.DirectionOut, result.Reply, nil); err != nil {
		return nil, err
	}

	s.logger.Debug("inbound message handled",
		"phone", phone,
		"from_state", rec.State.String(),
		"to_state", result.State.String(),
	)
	return outcome, nil
}

// loadConversation returns the stored record, a fresh one for new customers,
// or a fresh one when the stored record went idle.
func (s *Service) loadConversation(ctx context.Context, phone string, now time.Time) (conversations.Record, error) {
	rec, err := s.conversations.Get(ctx, phone)
	if errors.Is(err, conversations.ErrNotFound) {
		return conversations.NewRecord(phone, now), nil
	}
	if err != nil {
		return conversations.Record{}, fmt.Errorf("assistant: load conversation: %w", err)
	}
	if rec.State != conversation.StateNew && rec.IdleSince(now, s.idleTimeout) {
		s.logger.Info("conversation expired after inactivity", "phone", phone, "state", rec.State.String(), "updated_at", rec.UpdatedAt)
		return conversations.NewRecord(phone, now), nil
	}
	return *rec, nil
}

// book stores the appointment for a confirmed context and restarts the conversation.
func (s *Service) book(ctx context.Context, phone string, c conversation.Context, now time.Time) (*appointments.Appointment, error) {
	start, err := conversation.DeriveStartTime(c)
	if err != nil {
		return nil, &ConfirmationError{Context: c, Err: err}
	}

	service := c.Service
	if service == "" {
		service = defaultService
	}
	name := c.CustomerName
	if name == "" {
		name = defaultCustomerName
	}

	appt, created, err := s.appointments.CreateIfAbsent(ctx, appointments.NewAppointment{
		Phone:        phone,
		CustomerName: name,
		Service:      service,
		StartTime:    start,
	})
	if err != nil {
		return nil, fmt.Errorf("assistant: create appointment: %w", err)
	}
	s.metrics.ObserveAppointment(created)

	if _, err := s.customers.Upsert(ctx, phone, name); err != nil {
		return nil, fmt.Errorf("assistant: update customer: %w", err)
	}

	if s.publisher != nil {
		evt := events.AppointmentBookedV1{
			EventID:       uuid.NewString(),
			AppointmentID: appt.ID,
			Phone:         phone,
			CustomerName:  appt.CustomerName,
			Service:       appt.Service,
			StartTime:     appt.StartTime,
			Created:       created,
			OccurredAt:    now.UTC(),
		}
		if err := s.publisher.Publish(ctx, phone, evt); err != nil {
			s.logger.Error("failed to publish appointment event", "appointment_id", appt.ID, "error", err)
		}
	}

	if err := s.conversations.Put(ctx, conversations.NewRecord(phone, now)); err != nil {
		return nil, fmt.Errorf("assistant: reset conversation: %w", err)
	}
	return appt, nil
}

func (s *Service) markProcessed(ctx context.Context, provider, messageID string) {
	if messageID == "" || s.processed == nil {
		return
	}
	if _, err := s.processed.MarkProcessed(ctx, provider, messageID); err != nil {
		s.logger.Warn("failed to mark message processed", "provider", provider, "message_id", messageID, "error", err)
	}
}

func (s *Service) logMessage(ctx context.Context, phone string, dir messaging.Direction, body string, raw []byte) error {
	if s.messages == nil {
		return nil
	}
	if _, err := s.messages.Append(ctx, messaging.LoggedMessage{
		Phone:      phone,
		Direction:  dir,
		Body:       body,
		RawPayload: raw,
		CreatedAt:  s.clock().UTC(),
	}); err != nil {
		return fmt.Errorf("assistant: log %s message: %w", strings.ToLower(string(dir)), err)
	}
	return nil
}
