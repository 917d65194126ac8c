package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Hezi777/barber-pro/internal/appointments"
	"github.com/Hezi777/barber-pro/internal/assistant"
	appconfig "github.com/Hezi777/barber-pro/internal/config"
	"github.com/Hezi777/barber-pro/internal/conversation"
	"github.com/Hezi777/barber-pro/internal/conversations"
	"github.com/Hezi777/barber-pro/internal/customers"
	"github.com/Hezi777/barber-pro/internal/events"
	"github.com/Hezi777/barber-pro/internal/messaging"
	"github.com/Hezi777/barber-pro/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	phone := flag.String("phone", "+972500000099", "customer phone number (E.164)")
	flag.Parse()

	cfg := appconfig.Load()
	logger := logging.New("error", logging.WithFormat("text"), logging.WithOutput(os.Stderr))
	svc := newLocalAssistant(cfg, logger)

	fmt.Printf("%s booking simulator. Type a message, /quit to exit.\n", cfg.ShopName)
	if err := run(context.Background(), svc, *phone, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("chat: %v", err)
	}
}

// newLocalAssistant runs the assistant on in-memory stores only.
func newLocalAssistant(cfg *appconfig.Config, logger *logging.Logger) *assistant.Service {
	return assistant.NewService(
		conversations.NewInMemoryRepository(),
		appointments.NewInMemoryRepository(),
		customers.NewInMemoryRepository(),
		assistant.WithEngine(conversation.NewEngine(conversation.WithShopName(cfg.ShopName))),
		assistant.WithMessageLog(messaging.NewInMemoryMessageLog()),
		assistant.WithPublisher(events.NewLogPublisher(logger)),
		assistant.WithLogger(logger),
		assistant.WithLocation(cfg.Location()),
	)
}

func run(ctx context.Context, svc messaging.Processor, phone string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}

		result, err := svc.HandleInbound(ctx, messaging.InboundMessage{
			Phone:      phone,
			Body:       line,
			Provider:   "terminal",
			ReceivedAt: time.Now(),
		})
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "%s\n[%s]\n", result.Reply, result.State)
		if appt := result.Appointment; appt != nil {
			fmt.Fprintf(out, "booked %s for %s at %s (%s)\n", appt.Service, appt.CustomerName, appt.StartTime.Format(time.RFC3339), appt.Status)
		}
	}
}
