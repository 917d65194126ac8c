package demo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hezi777/barber-pro/internal/appointments"
	"github.com/Hezi777/barber-pro/internal/conversation"
	"github.com/Hezi777/barber-pro/internal/conversations"
	"github.com/Hezi777/barber-pro/internal/customers"
	"github.com/Hezi777/barber-pro/internal/messaging"
	"github.com/Hezi777/barber-pro/pkg/logging"
)

type stores struct {
	customers     *customers.InMemoryRepository
	conversations *conversations.InMemoryRepository
	appointments  *appointments.InMemoryRepository
	messages      *messaging.InMemoryMessageLog
}

func newSeeder() (*Seeder, stores) {
	st := stores{
		customers:     customers.NewInMemoryRepository(),
		conversations: conversations.NewInMemoryRepository(),
		appointments:  appointments.NewInMemoryRepository(),
		messages:      messaging.NewInMemoryMessageLog(),
	}
	s := NewSeeder(st.customers, st.conversations, st.appointments, st.messages, time.UTC)
	s.now = func() time.Time { return time.Date(2025, 1, 1, 15, 4, 0, 0, time.UTC) }
	return s, st
}

func TestSeedIsIdempotent(t *testing.T) {
	s, st := newSeeder()
	ctx := context.Background()

	first, err := s.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, Inserted{Customers: 3, Conversations: 3, Appointments: 5, Messages: 5}, first)

	second, err := s.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, Inserted{}, second)

	all, err := st.appointments.List(ctx, appointments.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	confirmed := 0
	for _, a := range all {
		if a.Status == appointments.StatusConfirmed {
			confirmed++
		}
	}
	assert.Equal(t, 2, confirmed)

	rec, err := st.conversations.Get(ctx, "+972500000002")
	require.NoError(t, err)
	assert.Equal(t, conversation.StateAwaitingTime, rec.State)
	assert.Equal(t, "2025-01-02", rec.Context.DayChoice)
	assert.Equal(t, "10:30", rec.Context.AvailableSlots["1"])

	cust, err := st.customers.Get(ctx, "+972500000003")
	require.NoError(t, err)
	assert.Equal(t, "Demo Customer Three", cust.Name)
}

func TestSeedKeepsExistingConversation(t *testing.T) {
	s, st := newSeeder()
	ctx := context.Background()
	require.NoError(t, st.conversations.Put(ctx, conversations.Record{
		Phone:   "+972500000001",
		State:   conversation.StateAwaitingDay,
		Context: conversation.Context{Service: "color"},
	}))

	ins, err := s.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ins.Conversations)

	rec, err := st.conversations.Get(ctx, "+972500000001")
	require.NoError(t, err)
	assert.Equal(t, conversation.StateAwaitingDay, rec.State)
}

func TestSeedHandler(t *testing.T) {
	s, _ := newSeeder()

	rec := httptest.NewRecorder()
	NewHandler(s, true, logging.Default()).Seed(rec, httptest.NewRequest(http.MethodPost, "/api/dev/seed", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Seed endpoint is disabled in production.")

	rec = httptest.NewRecorder()
	NewHandler(s, false, logging.Default()).Seed(rec, httptest.NewRequest(http.MethodPost, "/api/dev/seed", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		OK       bool     `json:"ok"`
		Inserted Inserted `json:"inserted"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.OK)
	assert.Equal(t, 3, body.Inserted.Customers)
}
