package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	llmadapter "github.com/gitacompanion/companion/engine/llm/adapter"
	"github.com/gitacompanion/companion/engine/llm/router"
	"github.com/gitacompanion/companion/pkg/logger"
)

const (
	DefaultCallTimeout  = 45 * time.Second
	defaultRetryBackoff = 500 * time.Millisecond
)

// Config holds orchestrator tuning. Zero values select defaults.
type Config struct {
	DefaultBackend string
	CallTimeout    time.Duration
	MaxRetries     uint64
	RetryBackoff   time.Duration
	Sink           DecisionSink
	Clock          func() time.Time
}

// Orchestrator runs backends in failover order, tracks their health and
// records one decision per request.
type Orchestrator struct {
	guidance       *llmadapter.Registry[llmadapter.GuidanceGenerator]
	chat           *llmadapter.Registry[llmadapter.ChatGenerator]
	defaultBackend atomic.Pointer[string]
	callTimeout    time.Duration
	maxRetries     uint64
	retryBackoff   time.Duration
	sink           DecisionSink
	health         *healthTracker
	now            func() time.Time
	tracer         trace.Tracer
}

func New(regs *llmadapter.Registries, cfg *Config) (*Orchestrator, error) {
	if regs == nil || regs.Guidance == nil || regs.Chat == nil {
		return nil, errors.New("orchestrator: registries are required")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	o := &Orchestrator{
		guidance:     regs.Guidance,
		chat:         regs.Chat,
		callTimeout:  cfg.CallTimeout,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		sink:         cfg.Sink,
		health:       newHealthTracker(regs.Names()),
		now:          cfg.Clock,
		tracer:       otel.Tracer("gita.llm.orchestrator"),
	}
	if o.callTimeout <= 0 {
		o.callTimeout = DefaultCallTimeout
	}
	if o.retryBackoff <= 0 {
		o.retryBackoff = defaultRetryBackoff
	}
	if o.sink == nil {
		o.sink = NopSink{}
	}
	if o.now == nil {
		o.now = time.Now
	}
	o.SetDefault(cfg.DefaultBackend)
	return o, nil
}

// SetDefault changes the backend used when routing is undecided.
func (o *Orchestrator) SetDefault(name string) {
	name = llmadapter.CanonicalName(name)
	if name == "" {
		name = llmadapter.BackendClaude
	}
	o.defaultBackend.Store(&name)
}

func (o *Orchestrator) Default() string {
	return *o.defaultBackend.Load()
}

// RegisteredDefault is the configured default when it is registered,
// otherwise the mock.
func (o *Orchestrator) RegisteredDefault() string {
	name := o.Default()
	for _, registered := range o.Backends() {
		if registered == name {
			return name
		}
	}
	return llmadapter.BackendMock
}

// Backends lists every registered backend name.
func (o *Orchestrator) Backends() []string {
	regs := &llmadapter.Registries{Guidance: o.guidance, Chat: o.chat}
	return regs.Names()
}

// Health returns a snapshot for every registered backend.
func (o *Orchestrator) Health() map[string]Health {
	return o.health.snapshot()
}

// Guidance generates a guidance answer routed on routingQuery.
func (o *Orchestrator) Guidance(
	ctx context.Context,
	input llmadapter.GuidanceInput,
	routingQuery string,
) (*llmadapter.GuidanceResult, string, error) {
	return execute(ctx, o, EndpointGuidance, o.guidance, routingQuery,
		func(ctx context.Context, gen llmadapter.GuidanceGenerator) (*llmadapter.GuidanceResult, error) {
			return gen.GenerateGuidance(ctx, input)
		},
	)
}

// Chat generates a chat reply routed on routingQuery.
func (o *Orchestrator) Chat(
	ctx context.Context,
	input llmadapter.ChatInput,
	routingQuery string,
) (*llmadapter.ChatResult, string, error) {
	return execute(ctx, o, EndpointChat, o.chat, routingQuery,
		func(ctx context.Context, gen llmadapter.ChatGenerator) (*llmadapter.ChatResult, error) {
			return gen.GenerateChat(ctx, input)
		},
	)
}

// FailoverOrder puts preferred first when it is registered, then every other
// name in registration order.
func FailoverOrder(preferred string, registered []string) []string {
	preferred = llmadapter.CanonicalName(preferred)
	order := make([]string, 0, len(registered))
	for _, name := range registered {
		if name == preferred {
			order = append(order, name)
			break
		}
	}
	for _, name := range registered {
		if name != preferred {
			order = append(order, name)
		}
	}
	return order
}

func execute[G any, R any](
	ctx context.Context,
	o *Orchestrator,
	endpoint string,
	registry *llmadapter.Registry[G],
	routingQuery string,
	call func(context.Context, G) (R, error),
) (R, string, error) {
	var zero R
	ctx, span := o.tracer.Start(ctx, "gita.llm.orchestrator."+endpoint)
	defer span.End()
	log := logger.FromContext(ctx).With("endpoint", endpoint)

	decision := router.Choose(ctx, routingQuery, o.Default())
	order := FailoverOrder(decision.Backend, registry.Names())
	span.SetAttributes(attribute.String("routed_to", decision.Backend), attribute.StringSlice("order", order))
	if len(order) == 0 {
		return zero, "", ErrNoBackends
	}

	start := o.now()
	for _, name := range order {
		if err := ctx.Err(); err != nil {
			break
		}
		gen, ok := registry.Resolve(name)
		if !ok {
			continue
		}
		result, err := invoke(ctx, o, gen, call)
		if err != nil {
			reason := err.Error()
			o.health.markFailed(name, reason, o.now())
			recordAttempt(ctx, endpoint, name, "error")
			log.Warn("Backend failed, trying next", "backend", name, "error", reason)
			span.AddEvent("backend_failed", trace.WithAttributes(attribute.String("backend", name)))
			continue
		}
		o.health.markOK(name, o.now())
		recordAttempt(ctx, endpoint, name, "success")
		o.record(ctx, newDecision(o.now(), endpoint, routingQuery, decision.Backend, name, o.now().Sub(start), true))
		span.SetAttributes(attribute.String("model_used", name))
		log.Debug("Backend succeeded", "backend", name, "routed_to", decision.Backend)
		return result, name, nil
	}

	o.record(ctx, newDecision(o.now(), endpoint, routingQuery, decision.Backend, ModelNone, o.now().Sub(start), false))
	span.SetStatus(codes.Error, ErrAllBackendsFailed.Error())
	if err := ctx.Err(); err != nil {
		return zero, "", fmt.Errorf("%w: %w", ErrAllBackendsFailed, err)
	}
	return zero, "", ErrAllBackendsFailed
}

// invoke runs one backend under the per-call timeout, retrying transient
// failures inside the same failover slot when retries are configured.
func invoke[G any, R any](
	ctx context.Context,
	o *Orchestrator,
	gen G,
	call func(context.Context, G) (R, error),
) (R, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()
	if o.maxRetries == 0 {
		return call(callCtx, gen)
	}
	var result R
	backoff := retry.WithMaxRetries(o.maxRetries, retry.NewExponential(o.retryBackoff))
	err := retry.Do(callCtx, backoff, func(ctx context.Context) error {
		var callErr error
		result, callErr = call(ctx, gen)
		if callErr != nil {
			if isRetryableError(callErr) {
				return retry.RetryableError(callErr)
			}
			return callErr
		}
		return nil
	})
	return result, err
}

func (o *Orchestrator) record(ctx context.Context, d Decision) {
	if err := o.sink.Record(ctx, d); err != nil {
		logger.FromContext(ctx).Warn("Could not write routing decision", "error", err)
	}
}
