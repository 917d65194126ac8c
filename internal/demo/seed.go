package demo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Hezi777/barber-pro/internal/appointments"
	"github.com/Hezi777/barber-pro/internal/conversation"
	"github.com/Hezi777/barber-pro/internal/conversations"
	"github.com/Hezi777/barber-pro/internal/customers"
	"github.com/Hezi777/barber-pro/internal/messaging"
	"github.com/Hezi777/barber-pro/pkg/logging"
)

// Inserted counts the rows a seed run actually created.
type Inserted struct {
	Customers     int `json:"customers"`
	Conversations int `json:"conversations"`
	Appointments  int `json:"appointments"`
	Messages      int `json:"messages"`
}

// Seeder fills the stores with demo data for the dashboard. Running it twice
// inserts nothing new.
type Seeder struct {
	customers     customers.Repository
	conversations conversations.Repository
	appointments  appointments.Repository
	messages      messaging.MessageLog
	engine        *conversation.Engine
	location      *time.Location
	now           func() time.Time
}

func NewSeeder(custs customers.Repository, convs conversations.Repository, appts appointments.Repository, messages messaging.MessageLog, loc *time.Location) *Seeder {
	if loc == nil {
		loc = time.UTC
	}
	return &Seeder{
		customers:     custs,
		conversations: convs,
		appointments:  appts,
		messages:      messages,
		engine:        conversation.NewEngine(),
		location:      loc,
		now:           time.Now,
	}
}

var demoCustomers = []struct{ phone, name string }{
	{"+972500000001", "Demo Customer One"},
	{"+972500000002", "Demo Customer Two"},
	{"+972500000003", "Demo Customer Three"},
}

// Seed inserts the demo rows that are still missing.
func (s *Seeder) Seed(ctx context.Context) (Inserted, error) {
	var ins Inserted
	now := s.now().In(s.location)

	for _, c := range demoCustomers {
		if _, err := s.customers.Get(ctx, c.phone); err == nil {
			continue
		} else if !errors.Is(err, customers.ErrNotFound) {
			return ins, fmt.Errorf("demo: lookup customer: %w", err)
		}
		if _, err := s.customers.Upsert(ctx, c.phone, c.name); err != nil {
			return ins, fmt.Errorf("demo: insert customer: %w", err)
		}
		ins.Customers++
	}

	for _, rec := range s.demoConversations(now) {
		if _, err := s.conversations.Get(ctx, rec.Phone); err == nil {
			continue
		} else if !errors.Is(err, conversations.ErrNotFound) {
			return ins, fmt.Errorf("demo: lookup conversation: %w", err)
		}
		if err := s.conversations.Put(ctx, rec); err != nil {
			return ins, fmt.Errorf("demo: insert conversation: %w", err)
		}
		ins.Conversations++
	}

	for _, a := range demoAppointments(now) {
		appt, created, err := s.appointments.CreateIfAbsent(ctx, a.NewAppointment)
		if err != nil {
			return ins, fmt.Errorf("demo: insert appointment: %w", err)
		}
		if !created {
			continue
		}
		if a.confirmed {
			if _, err := s.appointments.Confirm(ctx, appt.ID); err != nil {
				return ins, fmt.Errorf("demo: confirm appointment: %w", err)
			}
		}
		ins.Appointments++
	}

	if s.messages != nil {
		for _, m := range demoMessages {
			exists, err := s.hasMessage(ctx, m)
			if err != nil {
				return ins, err
			}
			if exists {
				continue
			}
			if _, err := s.messages.Append(ctx, m); err != nil {
				return ins, fmt.Errorf("demo: insert message: %w", err)
			}
			ins.Messages++
		}
	}
	return ins, nil
}

// demoConversations puts one customer at each interesting point of the flow.
func (s *Seeder) demoConversations(now time.Time) []conversations.Record {
	tomorrow := now.AddDate(0, 0, 1)
	day := conversation.DayChoice{
		ISODate: tomorrow.Format(conversation.ISODateLayout),
		Label:   tomorrow.Format(conversation.DayLabelLayout),
	}
	slots := s.engine.SlotsFor(day.ISODate)

	return []conversations.Record{
		conversations.NewRecord("+972500000001", now),
		{
			Phone: "+972500000002",
			State: conversation.StateAwaitingTime,
			Context: conversation.Context{
				Service:        "haircut",
				DayChoice:      day.ISODate,
				DayLabel:       day.Label,
				AvailableSlots: slots,
			},
			UpdatedAt: now.UTC(),
		},
		{
			Phone: "+972500000003",
			State: conversation.StateAwaitingName,
			Context: conversation.Context{
				Service:    "beard trim",
				DayChoice:  day.ISODate,
				DayLabel:   day.Label,
				TimeChoice: slots["1"],
			},
			UpdatedAt: now.UTC(),
		},
	}
}

type demoAppointment struct {
	appointments.NewAppointment
	confirmed bool
}

func demoAppointments(now time.Time) []demoAppointment {
	hour := now.Truncate(time.Hour)
	tomorrowAt := func(h, m int) time.Time {
		d := now.AddDate(0, 0, 1)
		return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, now.Location()).UTC()
	}
	return []demoAppointment{
		{appointments.NewAppointment{Phone: "+972500000001", CustomerName: "Demo Customer One", Service: "haircut", StartTime: hour.Add(time.Hour).UTC()}, false},
		{appointments.NewAppointment{Phone: "+972500000002", CustomerName: "Demo Customer Two", Service: "beard trim", StartTime: hour.Add(3 * time.Hour).UTC()}, true},
		{appointments.NewAppointment{Phone: "+972500000003", CustomerName: "Demo Customer Three", Service: "haircut", StartTime: tomorrowAt(10, 0)}, false},
		{appointments.NewAppointment{Phone: "+972500000001", CustomerName: "Demo Customer One", Service: "color", StartTime: tomorrowAt(12, 30)}, true},
		{appointments.NewAppointment{Phone: "+972500000002", CustomerName: "Demo Customer Two", Service: "haircut", StartTime: tomorrowAt(15, 30)}, false},
	}
}

var demoMessages = []messaging.LoggedMessage{
	{Phone: "+972500000001", Direction: messaging.DirectionIn, Body: "Hi, I want to book a haircut"},
	{Phone: "+972500000001", Direction: messaging.DirectionOut, Body: "Great. Please choose a day."},
	{Phone: "+972500000002", Direction: messaging.DirectionIn, Body: "Need beard trim tomorrow"},
	{Phone: "+972500000002", Direction: messaging.DirectionOut, Body: "Available slots: 10:00, 12:30."},
	{Phone: "+972500000003", Direction: messaging.DirectionIn, Body: "Book me for tomorrow afternoon"},
}

func (s *Seeder) hasMessage(ctx context.Context, m messaging.LoggedMessage) (bool, error) {
	existing, err := s.messages.ListByPhone(ctx, m.Phone, 0)
	if err != nil {
		return false, fmt.Errorf("demo: lookup messages: %w", err)
	}
	for _, e := range existing {
		if e.Direction == m.Direction && e.Body == m.Body {
			return true, nil
		}
	}
	return false, nil
}

// Handler serves POST /api/dev/seed.
type Handler struct {
	seeder     *Seeder
	production bool
	logger     *logging.Logger
}

func NewHandler(seeder *Seeder, production bool, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{seeder: seeder, production: production, logger: logger}
}

func (h *Handler) Seed(w http.ResponseWriter, r *http.Request) {
	if h.production {
		writeJSON(w, http.StatusForbidden, map[string]any{"ok": false, "error": "Seed endpoint is disabled in production."})
		return
	}
	ins, err := h.seeder.Seed(r.Context())
	if err != nil {
		h.logger.Error("failed to seed demo data", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "Failed to seed demo data.", "details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "inserted": ins})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
