// Package orchestrator runs one chat turn against the agent roster: the user's
// message is sent to each agent in order, increments are streamed to a Sink,
// and successful replies are combined into a single assistant message.
package orchestrator

import (
	"context"
	"io"
	"iter"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"pyramid/internal/agent"
	"pyramid/internal/session"
	"pyramid/internal/transport"
)

const (
	DefaultMaxTokens   = 2048
	DefaultTemperature = 0.7
)

// Transport streams one completion. The sequence may yield an error at any
// point, after which it ends.
type Transport interface {
	StreamCompletion(ctx context.Context, model string, messages []session.Message, maxTokens int, temperature float64) iter.Seq2[string, error]
}

type Options struct {
	Agents      []agent.Spec
	MaxTokens   int
	Temperature float64
	Now         func() time.Time
	Logger      *log.Logger
}

type Orchestrator struct {
	state       *session.State
	transport   Transport
	agents      []agent.Spec
	maxTokens   int
	temperature float64
	now         func() time.Time
	logger      *log.Logger
}

func New(state *session.State, tr Transport, opts Options) *Orchestrator {
	agents := opts.Agents
	if len(agents) == 0 {
		agents = agent.Roster()
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Orchestrator{
		state:       state,
		transport:   tr,
		agents:      agents,
		maxTokens:   maxTokens,
		temperature: opts.Temperature,
		now:         now,
		logger:      logger,
	}
}

func (o *Orchestrator) State() *session.State {
	return o.state
}

// Turn is a started turn: the user message is already in the context and
// Window is the request sent to every agent.
type Turn struct {
	ID       string
	UserText string
	Window   []session.Message
}

// Outcome is the aggregated result of running a turn.
type Outcome struct {
	Combined  string
	Succeeded []string
	Failed    []string
	Cancelled bool
}

func (o Outcome) OK() bool {
	return len(o.Succeeded) > 0
}

// HandleTurn runs a complete turn synchronously. Empty input is a no-op.
func (o *Orchestrator) HandleTurn(ctx context.Context, userText string, sink Sink) (Outcome, bool) {
	turn, ok := o.Begin(userText, sink)
	if !ok {
		return Outcome{}, false
	}
	outcome := o.Run(ctx, turn, sink)
	o.Commit(turn, outcome, sink)
	return outcome, true
}

// Begin appends the user message and announces the turn before any network
// activity. It returns false for input that is empty after trimming.
func (o *Orchestrator) Begin(userText string, sink Sink) (Turn, bool) {
	text, ok := session.Normalize(userText)
	if !ok {
		return Turn{}, false
	}
	turn := Turn{
		ID:       uuid.NewString(),
		UserText: text,
		Window:   o.state.AppendUser(text),
	}
	sink.TurnStarted(text, o.now().Format(session.TimestampLayout))
	o.logger.Info("turn started", "turn", turn.ID, "window", len(turn.Window))
	return turn, true
}

// Run attempts every agent in roster order. It never touches session state, so
// it is safe to call from a worker goroutine. ctx acts as the liveness flag:
// it is checked before each agent and before each increment.
func (o *Orchestrator) Run(ctx context.Context, turn Turn, sink Sink) Outcome {
	var outcome Outcome
	blocks := make([]string, 0, len(o.agents))

	for _, spec := range o.agents {
		if ctx.Err() != nil {
			outcome.Cancelled = true
			break
		}
		sink.AgentStarted(spec.DisplayName, spec.ModelID)

		text, cancelled, err := o.stream(ctx, spec, turn.Window, sink)
		if cancelled {
			outcome.Cancelled = true
			break
		}
		if err != nil {
			o.logger.Warn("agent failed", "turn", turn.ID, "agent", spec.DisplayName, "model", spec.ModelID, "code", transport.Classify(err), "err", err)
			sink.AgentError(spec.DisplayName, err.Error())
			outcome.Failed = append(outcome.Failed, spec.DisplayName)
		}
		sink.AgentEnded(spec.DisplayName)
		if err != nil {
			continue
		}

		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			o.logger.Debug("agent returned empty response", "turn", turn.ID, "agent", spec.DisplayName)
			continue
		}
		blocks = append(blocks, "--- "+spec.DisplayName+" ---\n"+trimmed)
		outcome.Succeeded = append(outcome.Succeeded, spec.DisplayName)
	}

	outcome.Combined = strings.TrimSpace(strings.Join(blocks, "\n\n"))
	return outcome
}

func (o *Orchestrator) stream(ctx context.Context, spec agent.Spec, window []session.Message, sink Sink) (text string, cancelled bool, err error) {
	var acc strings.Builder
	for chunk, streamErr := range o.transport.StreamCompletion(ctx, spec.ModelID, window, o.maxTokens, o.temperature) {
		if ctx.Err() != nil {
			return acc.String(), true, nil
		}
		if streamErr != nil {
			return acc.String(), false, streamErr
		}
		sink.TextIncrement(chunk)
		acc.WriteString(chunk)
	}
	return acc.String(), false, nil
}

// Commit records the outcome. A cancelled turn commits nothing. With at least
// one success the assistant message and history entry are added together;
// otherwise the total failure is reported and only the user message remains.
func (o *Orchestrator) Commit(turn Turn, outcome Outcome, sink Sink) {
	switch {
	case outcome.Cancelled:
		o.logger.Info("turn cancelled", "turn", turn.ID)
	case outcome.OK():
		o.state.Commit(turn.UserText, outcome.Combined, o.now())
		o.logger.Info("turn committed", "turn", turn.ID, "succeeded", len(outcome.Succeeded), "failed", len(outcome.Failed))
	default:
		sink.AllAgentsFailed()
		o.logger.Warn("all agents failed", "turn", turn.ID)
	}
}
