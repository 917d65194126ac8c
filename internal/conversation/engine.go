package conversation

import (
	"strings"
	"time"
)

// Result is the outcome of one transition. Context is a full replacement.
type Result struct {
	State   State
	Context Context
	Reply   string
}

// Engine is the booking state machine. It holds only configuration and is
// safe for concurrent use.
type Engine struct {
	services []ServiceRule
	slots    SlotProvider
	shopName string
}

// Option configures an Engine.
type Option func(*Engine)

// WithServices replaces the service menu. Empty menus are ignored.
func WithServices(rules []ServiceRule) Option {
	return func(e *Engine) {
		if len(rules) > 0 {
			e.services = append([]ServiceRule(nil), rules...)
		}
	}
}

// WithSlotProvider replaces the slot generator.
func WithSlotProvider(p SlotProvider) Option {
	return func(e *Engine) {
		if p != nil {
			e.slots = p
		}
	}
}

// WithShopName sets the name used in the welcome message.
func WithShopName(name string) Option {
	return func(e *Engine) {
		if name = strings.TrimSpace(name); name != "" {
			e.shopName = name
		}
	}
}

// NewEngine builds an engine with the default menu and mock slots.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		services: DefaultServices,
		slots:    MockSlots{},
		shopName: "Barber Pro",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SlotsFor exposes the engine's slot generator.
func (e *Engine) SlotsFor(isoDate string) Slots {
	return e.slots.SlotsFor(isoDate)
}

var defaultEngine = NewEngine()

// Process runs one transition on the default engine.
func Process(state State, current Context, message string, now time.Time) Result {
	return defaultEngine.Process(state, current, message, now)
}

// Process advances the conversation by one inbound message. It never fails:
// parse misses keep the state and return a corrective reply, and unknown
// states restart the flow. now is the reference instant for day parsing.
func (e *Engine) Process(state State, current Context, message string, now time.Time) Result {
	ctx := current.Clone()

	switch state {
	case StateNew:
		return Result{State: StateAwaitingService, Context: ctx, Reply: e.welcomeReply()}

	case StateAwaitingService:
		service, ok := matchService(e.services, message)
		if !ok {
			return Result{State: StateAwaitingService, Context: ctx, Reply: e.serviceMissReply()}
		}
		return Result{State: StateAwaitingDay, Context: ctx.withService(service), Reply: replyAskDay}

	case StateAwaitingDay:
		day, ok := ParseDay(message, now)
		if !ok {
			return Result{State: StateAwaitingDay, Context: ctx, Reply: replyDayMiss}
		}
		slots := e.slots.SlotsFor(day.ISODate)
		return Result{State: StateAwaitingTime, Context: ctx.withDay(day, slots), Reply: slotsReply(day.Label, slots)}

	case StateAwaitingTime:
		slot, ok := ParseTimeChoice(message, ctx.AvailableSlots)
		if !ok {
			return Result{State: StateAwaitingTime, Context: ctx, Reply: timeMissReply(ctx.AvailableSlots)}
		}
		return Result{State: StateAwaitingName, Context: ctx.withTime(slot), Reply: replyAskName}

	case StateAwaitingName:
		name, ok := SanitizeName(message)
		if !ok {
			return Result{State: StateAwaitingName, Context: ctx, Reply: replyNameMiss}
		}
		next := ctx.withName(name)
		return Result{State: StateConfirmed, Context: next, Reply: confirmedReply(next)}

	case StateConfirmed:
		return e.restart()

	default:
		return e.restart()
	}
}

func (e *Engine) restart() Result {
	return Result{State: StateAwaitingService, Context: Context{}, Reply: e.restartReply()}
}
