package customers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryUpsert(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	first, err := repo.Upsert(ctx, "+972500000001", "")
	require.NoError(t, err)
	assert.Empty(t, first.Name)

	named, err := repo.Upsert(ctx, "+972500000001", "Dana Levi")
	require.NoError(t, err)
	assert.Equal(t, first.ID, named.ID)
	assert.Equal(t, "Dana Levi", named.Name)

	again, err := repo.Upsert(ctx, "+972500000001", "  ")
	require.NoError(t, err)
	assert.Equal(t, "Dana Levi", again.Name, "blank name keeps the stored one")

	_, err = repo.Upsert(ctx, " ", "x")
	assert.ErrorIs(t, err, ErrMissingPhone)
}

func TestPostgresUpsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPostgresRepositoryWithExec(mock)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO customers").
		WithArgs(pgxmock.AnyArg(), "+972500000001", "Dana Levi").
		WillReturnRows(pgxmock.NewRows([]string{"id", "phone", "name", "created_at"}).AddRow(id, "+972500000001", "Dana Levi", now))

	c, err := repo.Upsert(context.Background(), "+972500000001", " Dana Levi ")
	require.NoError(t, err)
	assert.Equal(t, id.String(), c.ID)
	assert.Equal(t, "Dana Levi", c.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	_, err := repo.Get(ctx, "+972500000001")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Upsert(ctx, "+972500000001", "Dana Levi")
	require.NoError(t, err)
	c, err := repo.Get(ctx, "+972500000001")
	require.NoError(t, err)
	assert.Equal(t, "Dana Levi", c.Name)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	pg := newPostgresRepositoryWithExec(mock)

	mock.ExpectQuery("SELECT id, phone").WithArgs("+972500000009").WillReturnError(pgx.ErrNoRows)
	_, err = pg.Get(ctx, "+972500000009")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
