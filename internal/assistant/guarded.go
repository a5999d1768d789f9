package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/albeorla/task-pri-lite-sub001/internal/logging"
	"github.com/albeorla/task-pri-lite-sub001/internal/secrets"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const instrumentationName = "github.com/albeorla/task-pri-lite-sub001/internal/assistant"

// Defaults applied by NewGuarded to zero GuardConfig fields.
const (
	DefaultTimeout   = 20 * time.Second
	DefaultRateLimit = 50.0 // requests per minute
	DefaultBurst     = 5
)

// maxActionLen bounds a suggested next action.
const maxActionLen = 200

// Provider sends one system+user prompt to a model and returns its text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// GuardConfig tunes a Guarded collaborator.
type GuardConfig struct {
	Timeout   time.Duration
	RateLimit float64 // requests per minute
	Burst     int
	Scrubber  secrets.Scrubber
	Logger    *logging.Logger
}

// Guarded adapts a Provider to Collaborator. Each call is bounded by a
// timeout and a rate limiter, and outgoing text is scrubbed of secrets.
type Guarded struct {
	provider Provider
	timeout  time.Duration
	limiter  *rate.Limiter
	scrubber secrets.Scrubber
	logger   *logging.Logger
}

// NewGuarded wraps p.
func NewGuarded(p Provider, cfg GuardConfig) *Guarded {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.Scrubber == nil {
		cfg.Scrubber = secrets.MustNew(secrets.DefaultRules())
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	return &Guarded{
		provider: p,
		timeout:  cfg.Timeout,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimit/60.0), cfg.Burst),
		scrubber: cfg.Scrubber,
		logger:   cfg.Logger.Named("assistant"),
	}
}

// Available returns true.
func (g *Guarded) Available() bool { return true }

// Clarify asks the provider whether description is actionable.
func (g *Guarded) Clarify(ctx context.Context, description string) Clarification {
	reply, err := g.complete(ctx, "clarify", clarifySystem, clarifyPrompt(description))
	if err != nil {
		return Clarification{Rationale: failureRationale("clarification", err)}
	}

	var resp struct {
		Actionable *bool  `json:"actionable"`
		IsProject  *bool  `json:"is_project"`
		Outcome    string `json:"outcome"`
		Rationale  string `json:"rationale"`
	}
	if err := decodeJSON(reply, &resp); err != nil {
		g.logger.Warn(ctx, "unparseable clarification", zap.Error(err))
		return Clarification{Rationale: failureRationale("clarification", err)}
	}
	return Clarification{
		Actionable: resp.Actionable,
		IsProject:  resp.IsProject,
		Outcome:    strings.TrimSpace(resp.Outcome),
		Rationale:  strings.TrimSpace(resp.Rationale),
	}
}

// SuggestNextAction asks for the project's next physical action.
func (g *Guarded) SuggestNextAction(ctx context.Context, project, outcome string) string {
	reply, err := g.complete(ctx, "next_action", nextActionSystem, nextActionPrompt(project, outcome))
	if err != nil {
		return ""
	}
	return cleanAction(reply)
}

// AssessPriority asks for the task's urgency and importance.
func (g *Guarded) AssessPriority(ctx context.Context, description string) Assessment {
	reply, err := g.complete(ctx, "assess", assessSystem, assessPrompt(description))
	if err != nil {
		return Assessment{Rationale: failureRationale("assessment", err)}
	}

	var resp struct {
		Urgent    *bool  `json:"urgent"`
		Important *bool  `json:"important"`
		Rationale string `json:"rationale"`
	}
	if err := decodeJSON(reply, &resp); err != nil {
		g.logger.Warn(ctx, "unparseable assessment", zap.Error(err))
		return Assessment{Rationale: failureRationale("assessment", err)}
	}
	return Assessment{
		Urgent:    resp.Urgent,
		Important: resp.Important,
		Rationale: strings.TrimSpace(resp.Rationale),
	}
}

func (g *Guarded) complete(ctx context.Context, op, system, prompt string) (string, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "assistant."+op)
	defer span.End()
	span.SetAttributes(attribute.String("assistant.provider", g.provider.Name()))

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	reply, err := g.do(ctx, prompt, system)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Warn(ctx, "assistant call failed",
			zap.String("op", op),
			zap.String("provider", g.provider.Name()),
			zap.Error(err),
		)
		return "", err
	}
	return reply, nil
}

func (g *Guarded) do(ctx context.Context, prompt, system string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	scrubbed := g.scrubber.Scrub(prompt)
	if scrubbed.HasFindings() {
		g.logger.Debug(ctx, "scrubbed secrets from prompt", zap.Any("rules", scrubbed.ByRule))
	}

	reply, err := g.provider.Complete(ctx, system, scrubbed.Scrubbed)
	if err != nil {
		return "", fmt.Errorf("%s: %w", g.provider.Name(), err)
	}
	if strings.TrimSpace(reply) == "" {
		return "", fmt.Errorf("%s: empty reply: %w", g.provider.Name(), ErrMalformedResponse)
	}
	return reply, nil
}

// decodeJSON parses the first JSON object in reply. Models sometimes wrap
// JSON in markdown fences or add a sentence around it.
func decodeJSON(reply string, v any) error {
	content := strings.TrimSpace(reply)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return fmt.Errorf("no JSON object: %w", ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), v); err != nil {
		return fmt.Errorf("%v: %w", err, ErrMalformedResponse)
	}
	return nil
}

var listMarker = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)

// cleanAction reduces a free-text reply to a single action line. Lines that
// open a JSON value or markup tag are never actions.
func cleanAction(reply string) string {
	for _, line := range strings.Split(reply, "\n") {
		line = listMarker.ReplaceAllString(line, "")
		line = strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "\"'`"))
		if line == "" || strings.ContainsAny(line[:1], "{[<") {
			continue
		}
		if r := []rune(line); len(r) > maxActionLen {
			line = string(r[:maxActionLen])
		}
		return line
	}
	return ""
}

func failureRationale(what string, err error) string {
	return fmt.Sprintf("%s unavailable: %v", what, err)
}

var _ Collaborator = (*Guarded)(nil)
