package orchestrator

import "context"

// Sink receives turn progress. Calls are fire-and-forget and arrive in the
// order they happened.
type Sink interface {
	TurnStarted(userText, timestamp string)
	AgentStarted(displayName, modelID string)
	TextIncrement(text string)
	AgentError(displayName, message string)
	AgentEnded(displayName string)
	AllAgentsFailed()
	Info(message string)
}

type EventKind int

const (
	EventTurnStarted EventKind = iota
	EventAgentStarted
	EventTextIncrement
	EventAgentError
	EventAgentEnded
	EventAllAgentsFailed
	EventInfo
)

func (k EventKind) String() string {
	switch k {
	case EventTurnStarted:
		return "turn_started"
	case EventAgentStarted:
		return "agent_started"
	case EventTextIncrement:
		return "text_increment"
	case EventAgentError:
		return "agent_error"
	case EventAgentEnded:
		return "agent_ended"
	case EventAllAgentsFailed:
		return "all_agents_failed"
	case EventInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Event is a Sink call captured as a value. Only the fields relevant to Kind
// are set: Agent/Model for agent events, Text for increments, user text,
// errors and info.
type Event struct {
	Kind      EventKind
	Agent     string
	Model     string
	Text      string
	Timestamp string
}

// Replay delivers the event to sink.
func (e Event) Replay(sink Sink) {
	switch e.Kind {
	case EventTurnStarted:
		sink.TurnStarted(e.Text, e.Timestamp)
	case EventAgentStarted:
		sink.AgentStarted(e.Agent, e.Model)
	case EventTextIncrement:
		sink.TextIncrement(e.Text)
	case EventAgentError:
		sink.AgentError(e.Agent, e.Text)
	case EventAgentEnded:
		sink.AgentEnded(e.Agent)
	case EventAllAgentsFailed:
		sink.AllAgentsFailed()
	case EventInfo:
		sink.Info(e.Text)
	}
}

// emitter turns Sink calls into Events for any delivery function.
type emitter func(Event)

func (f emitter) TurnStarted(userText, timestamp string) {
	f(Event{Kind: EventTurnStarted, Text: userText, Timestamp: timestamp})
}

func (f emitter) AgentStarted(displayName, modelID string) {
	f(Event{Kind: EventAgentStarted, Agent: displayName, Model: modelID})
}

func (f emitter) TextIncrement(text string) {
	f(Event{Kind: EventTextIncrement, Text: text})
}

func (f emitter) AgentError(displayName, message string) {
	f(Event{Kind: EventAgentError, Agent: displayName, Text: message})
}

func (f emitter) AgentEnded(displayName string) {
	f(Event{Kind: EventAgentEnded, Agent: displayName})
}

func (f emitter) AllAgentsFailed() {
	f(Event{Kind: EventAllAgentsFailed})
}

func (f emitter) Info(message string) {
	f(Event{Kind: EventInfo, Text: message})
}

// ChannelSink hands events from the turn worker to the foreground over a
// bounded channel. Sends block until received or until ctx is done; events
// are never dropped while the receiver is alive.
type ChannelSink struct {
	emitter
	out chan Event
}

func NewChannelSink(ctx context.Context, capacity int) *ChannelSink {
	if capacity <= 0 {
		capacity = 1
	}
	out := make(chan Event, capacity)
	return &ChannelSink{
		out: out,
		emitter: func(e Event) {
			select {
			case out <- e:
			case <-ctx.Done():
			}
		},
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.out
}

// Close must be called by the sending side once the turn is over.
func (s *ChannelSink) Close() {
	close(s.out)
}
