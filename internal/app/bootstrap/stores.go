package bootstrap

import (
	"database/sql"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/Hezi777/barber-pro/internal/appointments"
	"github.com/Hezi777/barber-pro/internal/assistant"
	appconfig "github.com/Hezi777/barber-pro/internal/config"
	"github.com/Hezi777/barber-pro/internal/conversations"
	"github.com/Hezi777/barber-pro/internal/customers"
	"github.com/Hezi777/barber-pro/internal/events"
	"github.com/Hezi777/barber-pro/internal/messaging"
	"github.com/Hezi777/barber-pro/pkg/logging"
)

// Backends are the optional infrastructure clients. Nil fields are unavailable.
type Backends struct {
	Pool   *pgxpool.Pool
	SQL    *sql.DB
	Redis  *redis.Client
	Dynamo *dynamodb.Client
}

// Stores holds every repository the assistant and the API need.
type Stores struct {
	Conversations conversations.Repository
	Appointments  appointments.Repository
	Customers     customers.Repository
	Messages      messaging.MessageLog
	Processed     events.ProcessedStore
	Locker        assistant.Locker
}

// BuildStores picks Postgres for relational data when a pool is available and
// falls back to memory otherwise. CONVERSATION_STORE selects the conversation backend.
func BuildStores(cfg *appconfig.Config, b Backends, logger *logging.Logger) (*Stores, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	s := &Stores{
		Appointments: appointments.NewInMemoryRepository(),
		Customers:    customers.NewInMemoryRepository(),
		Messages:     messaging.NewInMemoryMessageLog(),
		Processed:    events.NewInMemoryProcessedStore(),
		Locker:       assistant.NewMemoryLocker(),
	}
	if b.Pool != nil {
		s.Appointments = appointments.NewPostgresRepository(b.Pool)
		s.Customers = customers.NewPostgresRepository(b.Pool)
		s.Processed = events.NewPostgresProcessedStore(b.Pool)
	} else {
		logger.Warn("DATABASE_URL not set; appointments and customers are kept in memory")
	}
	if b.SQL != nil {
		s.Messages = messaging.NewSQLMessageLog(b.SQL)
	}
	if b.Redis != nil {
		s.Locker = assistant.NewRedisLocker(b.Redis, cfg.LockTTL)
		if b.Pool == nil {
			s.Processed = events.NewRedisProcessedStore(b.Redis, 0)
		}
	}

	convs, err := buildConversationRepository(cfg, b, logger)
	if err != nil {
		return nil, err
	}
	s.Conversations = convs
	logger.Info("stores configured",
		"conversation_store", cfg.ConversationStore,
		"postgres", b.Pool != nil,
		"redis_lock", b.Redis != nil,
	)
	return s, nil
}

func buildConversationRepository(cfg *appconfig.Config, b Backends, logger *logging.Logger) (conversations.Repository, error) {
	switch cfg.ConversationStore {
	case "", appconfig.StoreMemory:
		return conversations.NewInMemoryRepository(), nil
	case appconfig.StorePostgres:
		if b.Pool == nil {
			return nil, fmt.Errorf("bootstrap: CONVERSATION_STORE=postgres requires DATABASE_URL")
		}
		return conversations.NewPostgresRepository(b.Pool), nil
	case appconfig.StoreRedis:
		if b.Redis == nil {
			return nil, fmt.Errorf("bootstrap: CONVERSATION_STORE=redis requires REDIS_ADDR")
		}
		return conversations.NewRedisRepository(b.Redis, cfg.ConversationTTL, otel.Tracer("barberpro.internal.conversations")), nil
	case appconfig.StoreDynamoDB:
		if b.Dynamo == nil {
			return nil, fmt.Errorf("bootstrap: CONVERSATION_STORE=dynamodb requires an AWS client")
		}
		return conversations.NewDynamoRepository(b.Dynamo, cfg.ConversationsTable, cfg.ConversationTTL, logger), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown CONVERSATION_STORE %q", cfg.ConversationStore)
	}
}
