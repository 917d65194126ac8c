package mainconfig

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/Hezi777/barber-pro/internal/config"
)

// AWSClients are the SDK clients the API binary may need. Nil fields are not configured.
type AWSClients struct {
	SQS    *sqs.Client
	Dynamo *dynamodb.Client
}

// NeedsAWS reports whether any configured component talks to AWS.
func NeedsAWS(cfg *appconfig.Config) bool {
	if cfg == nil {
		return false
	}
	return strings.TrimSpace(cfg.BookingEventsQueueURL) != "" || cfg.ConversationStore == appconfig.StoreDynamoDB
}

// LoadAWSConfig builds the SDK config. Static credentials win over the default chain
// when both key parts are set.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}
	return config.LoadDefaultConfig(ctx, loaders...)
}

// BuildAWSClients creates only the clients the configuration asks for.
// AWS_ENDPOINT_OVERRIDE points them at LocalStack.
func BuildAWSClients(ctx context.Context, cfg *appconfig.Config) (AWSClients, error) {
	if !NeedsAWS(cfg) {
		return AWSClients{}, nil
	}
	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return AWSClients{}, err
	}
	return clientsFromConfig(awsCfg, cfg), nil
}

func clientsFromConfig(awsCfg aws.Config, cfg *appconfig.Config) AWSClients {
	endpoint := strings.TrimSpace(cfg.AWSEndpointOverride)

	var clients AWSClients
	if strings.TrimSpace(cfg.BookingEventsQueueURL) != "" {
		clients.SQS = sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
			if endpoint != "" {
				o.BaseEndpoint = aws.String(endpoint)
			}
		})
	}
	if cfg.ConversationStore == appconfig.StoreDynamoDB {
		clients.Dynamo = dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if endpoint != "" {
				o.BaseEndpoint = aws.String(endpoint)
			}
		})
	}
	return clients
}
