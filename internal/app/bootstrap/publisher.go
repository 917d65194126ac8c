package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/Hezi777/barber-pro/internal/config"
	"github.com/Hezi777/barber-pro/internal/events"
	"github.com/Hezi777/barber-pro/pkg/logging"
)

// BuildPublisher sends booking events to SQS when a queue is configured and
// logs them otherwise.
func BuildPublisher(cfg *appconfig.Config, client *sqs.Client, logger *logging.Logger) events.Publisher {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil || cfg.BookingEventsQueueURL == "" || client == nil {
		logger.Info("booking events queue not configured; events will be logged")
		return events.NewLogPublisher(logger)
	}
	logger.Info("publishing booking events to SQS", "queue_url", cfg.BookingEventsQueueURL)
	return events.NewSQSPublisher(client, cfg.BookingEventsQueueURL)
}
