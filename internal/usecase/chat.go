package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"

	"peter-ai/internal/domain"
	"peter-ai/internal/infra/tracer"
)

// Status lines streamed to the client while a turn is in flight.
const (
	statusLooking       = "Looking at your message"
	statusSearching     = "Searching for external information"
	statusPersonalizing = "Personalizing response"
)

// Turn is one inbound client message.
type Turn struct {
	UserID      string
	SessionID   string
	UserMessage string
	Search      bool
}

// Frame is one outbound protocol message. Intermediate frames carry a
// status line in ChainOfThoughtMessage; the final frame sets
// ChainOfThought and carries the generated reply.
type Frame struct {
	UserID                string               `json:"user_id"`
	SessionID             string               `json:"session_id"`
	ChainOfThought        bool                 `json:"chain_of_thought"`
	ChainOfThoughtMessage string               `json:"chain_of_thought_message"`
	Message               string               `json:"message"`
	SearchResults         domain.SearchResults `json:"search_results"`
}

// FrameWriter delivers one frame to the client. An error means the
// connection is gone and the turn should stop.
type FrameWriter func(ctx context.Context, frame Frame) error

// SearchProvider supplies the per-category search results for a turn.
type SearchProvider interface {
	All(ctx context.Context, query string) domain.SearchResults
}

// ChatDeps holds injected dependencies for the chat usecase.
type ChatDeps struct {
	LLM    domain.LLMProvider
	Search SearchProvider
	Logger *slog.Logger
}

// Chat runs the turn body: acknowledge, optionally search, generate,
// reply. One Chat instance is shared across sessions.
type Chat struct {
	deps ChatDeps
}

// NewChat creates the chat usecase with the given dependencies.
func NewChat(deps ChatDeps) *Chat {
	return &Chat{deps: deps}
}

// HandleTurn processes one inbound message, emitting status frames as the
// turn progresses and a final frame carrying the generated reply. Search
// and generation failures degrade to empty results and an empty reply;
// only a failed emit (client gone) returns an error.
func (c *Chat) HandleTurn(ctx context.Context, turn Turn, emit FrameWriter) error {
	turnID := ulid.Make().String()
	ctx, span := tracer.StartSpan(ctx, "chat.turn",
		trace.WithAttributes(
			tracer.StringAttr("turn.id", turnID),
			tracer.StringAttr("session.id", turn.SessionID),
		),
	)
	defer span.End()

	started := time.Now()
	logger := c.deps.Logger.With("turn_id", turnID, "session_id", turn.SessionID)

	if err := emit(ctx, statusFrame(turn, statusLooking, domain.SearchResults{})); err != nil {
		return err
	}

	results := domain.SearchResults{}
	if turn.Search {
		if err := emit(ctx, statusFrame(turn, statusSearching, domain.SearchResults{})); err != nil {
			return err
		}
		results = c.deps.Search.All(ctx, turn.UserMessage)
	}

	if err := emit(ctx, statusFrame(turn, statusPersonalizing, results)); err != nil {
		return err
	}

	message := c.generate(ctx, logger, turn.UserMessage, results)

	final := Frame{
		UserID:         turn.UserID,
		SessionID:      turn.SessionID,
		ChainOfThought: true,
		Message:        message,
		SearchResults:  results,
	}
	if err := emit(ctx, final); err != nil {
		return err
	}

	logger.Info("turn completed",
		"search", turn.Search,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	tracer.SetOK(span)
	return nil
}

// generate renders the prompt and asks the model. Failures are logged and
// degrade to an empty reply: the client always gets its final frame.
func (c *Chat) generate(ctx context.Context, logger *slog.Logger, userMessage string, results domain.SearchResults) string {
	req := domain.ChatRequest{
		Messages: []domain.Message{{
			Role:      domain.RoleUser,
			Content:   BuildPrompt(userMessage, results),
			Timestamp: time.Now(),
		}},
	}

	resp, err := c.deps.LLM.Chat(ctx, req)
	if err != nil {
		logger.Error("generation failed", "error", err)
		return ""
	}
	return strings.TrimSpace(resp.Message.Content)
}

func statusFrame(turn Turn, status string, results domain.SearchResults) Frame {
	return Frame{
		UserID:                turn.UserID,
		SessionID:             turn.SessionID,
		ChainOfThoughtMessage: status,
		SearchResults:         results,
	}
}
