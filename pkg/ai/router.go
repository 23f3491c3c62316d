package ai

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	completionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "promptcoach",
		Subsystem: "ai",
		Name:      "completion_duration_seconds",
		Help:      "Duration of structured completion requests",
	}, []string{"provider"})

	completionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "promptcoach",
		Subsystem: "ai",
		Name:      "completion_failures_total",
		Help:      "Number of failed structured completion requests",
	}, []string{"provider"})
)

// ErrProviderNotConfigured indicates no client was registered for the model's provider.
var ErrProviderNotConfigured = errors.New("provider not configured")

// Router dispatches structured completions to the provider named in the model id.
type Router struct {
	providers map[Provider]StructuredCompleter
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewRouter builds an empty router. Providers are added with Register.
func NewRouter(logger zerolog.Logger) *Router {
	return &Router{
		providers: make(map[Provider]StructuredCompleter),
		tracer:    otel.Tracer("github.com/noah-isme/promptcoach-api/pkg/ai"),
		logger:    logger.With().Str("component", "ai_router").Logger(),
	}
}

// Register binds a completer to provider, replacing any previous one.
func (r *Router) Register(provider Provider, completer StructuredCompleter) {
	if completer == nil {
		return
	}
	r.providers[provider] = completer
}

// Configured reports whether provider has a registered completer.
func (r *Router) Configured(provider Provider) bool {
	_, ok := r.providers[provider]
	return ok
}

// Providers lists the registered providers in name order.
func (r *Router) Providers() []Provider {
	providers := make([]Provider, 0, len(r.providers))
	for provider := range r.providers {
		providers = append(providers, provider)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })
	return providers
}

// CompleteStructured resolves req.Model ("provider/name") and forwards the request
// with the bare model name.
func (r *Router) CompleteStructured(parent context.Context, req StructuredRequest) (StructuredResponse, error) {
	provider, name, err := ParseModelID(req.Model)
	if err != nil {
		return StructuredResponse{}, err
	}

	completer, ok := r.providers[provider]
	if !ok {
		return StructuredResponse{}, fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider)
	}

	ctx, span := r.tracer.Start(parent, "ai.complete_structured", trace.WithAttributes(
		attribute.String("provider", string(provider)),
		attribute.String("model", name),
	))
	defer span.End()

	forwarded := req
	forwarded.Model = name

	start := time.Now()
	resp, err := completer.CompleteStructured(ctx, forwarded)
	completionDuration.WithLabelValues(string(provider)).Observe(time.Since(start).Seconds())
	if err != nil {
		completionFailures.WithLabelValues(string(provider)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Debug().Err(err).Str("model", req.Model).Msg("structured completion failed")
		return StructuredResponse{}, fmt.Errorf("%s completion: %w", provider, err)
	}

	resp.Provider = provider
	resp.Model = req.Model
	span.SetAttributes(attribute.Int("usage.total_tokens", resp.Usage.TotalTokens))
	return resp, nil
}
