package messaging

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryMessageLog(t *testing.T) {
	ctx := context.Background()
	log := NewInMemoryMessageLog()
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	_, err := log.Append(ctx, LoggedMessage{Phone: "+972500000001", Direction: DirectionOut, Body: "reply", CreatedAt: base.Add(time.Second)})
	require.NoError(t, err)
	in, err := log.Append(ctx, LoggedMessage{Phone: "+972500000001", Direction: DirectionIn, Body: "hi", RawPayload: json.RawMessage(`{"from":"x"}`), CreatedAt: base})
	require.NoError(t, err)
	assert.NotEmpty(t, in.ID)
	_, err = log.Append(ctx, LoggedMessage{Phone: "+972500000002", Direction: DirectionIn, Body: "other"})
	require.NoError(t, err)

	items, err := log.ListByPhone(ctx, "+972500000001", 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "hi", items[0].Body)
	assert.Equal(t, "reply", items[1].Body)

	limited, err := log.ListByPhone(ctx, "+972500000001", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMessageLogRejectsBadMessages(t *testing.T) {
	log := NewInMemoryMessageLog()
	ctx := context.Background()

	_, err := log.Append(ctx, LoggedMessage{Direction: DirectionIn, Body: "hi"})
	assert.Error(t, err)
	_, err = log.Append(ctx, LoggedMessage{Phone: "+972500000001", Direction: "SIDEWAYS"})
	assert.Error(t, err)
	_, err = log.Append(ctx, LoggedMessage{Phone: "+972500000001", Direction: DirectionIn, RawPayload: json.RawMessage(`{oops`)})
	assert.Error(t, err)
}

func TestSQLMessageLogAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO messages")).
		WithArgs(sqlmock.AnyArg(), "+972500000001", "IN", "hi", `{"a":1}`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO messages")).
		WithArgs(sqlmock.AnyArg(), "+972500000001", "OUT", "reply", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	log := NewSQLMessageLog(db)
	_, err = log.Append(context.Background(), LoggedMessage{Phone: "+972500000001", Direction: DirectionIn, Body: "hi", RawPayload: json.RawMessage(`{"a":1}`)})
	require.NoError(t, err)
	_, err = log.Append(context.Background(), LoggedMessage{Phone: "+972500000001", Direction: DirectionOut, Body: "reply"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMessageLogListByPhone(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "phone", "direction", "body", "raw_payload", "created_at"}).
		AddRow("m1", "+972500000001", "IN", "hi", []byte(`{"a":1}`), created).
		AddRow("m2", "+972500000001", "OUT", "reply", nil, created.Add(time.Second))
	mock.ExpectQuery(regexp.QuoteMeta("FROM messages")).
		WithArgs("+972500000001", defaultTranscriptLimit).
		WillReturnRows(rows)

	items, err := NewSQLMessageLog(db).ListByPhone(context.Background(), "+972500000001", 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, DirectionIn, items[0].Direction)
	assert.JSONEq(t, `{"a":1}`, string(items[0].RawPayload))
	assert.Equal(t, DirectionOut, items[1].Direction)
	assert.Nil(t, items[1].RawPayload)
	require.NoError(t, mock.ExpectationsWereMet())
}
