package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/ZaidMomin2003/talxify/backend/internal/config"
	"github.com/ZaidMomin2003/talxify/backend/internal/model/interview"
	"github.com/ZaidMomin2003/talxify/backend/internal/model/interviewer"
	"github.com/ZaidMomin2003/talxify/backend/internal/observability/logging"
)

// ErrNoReply marks a model call that completed without producing any text.
// The gateway treats it as a fatal generation error for the turn.
var ErrNoReply = errors.New("model produced an empty reply")

// Service encapsulates the conversational model behind a compiled
// prompt-to-model chain.
type Service struct {
	chatModel    model.ChatModel
	interviewers interviewer.Store
	cfg          config.AIConfig
	chain        compose.Runnable[map[string]any, *schema.Message]
	log          zerolog.Logger
}

// NewService creates the AI service and compiles its chain once.
func NewService(ctx context.Context, interviewers interviewer.Store, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile interview chain: %w", err)
	}

	return &Service{
		chatModel:    chatModel,
		interviewers: interviewers,
		cfg:          cfg,
		chain:        runnable,
		log:          logging.WithComponent("ai"),
	}, nil
}

// StreamingEnabled reports whether replies stream incrementally.
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// Interviewers exposes the persona roster for handlers.
func (s *Service) Interviewers() interviewer.Store {
	return s.interviewers
}

// ChatModel exposes the underlying model client so sibling services can
// share the same connection.
func (s *Service) ChatModel() model.ChatModel {
	return s.chatModel
}

// GenerateReply produces one complete interviewer reply.
func (s *Service) GenerateReply(ctx context.Context, session interview.Session, profile *interviewer.Profile, history []interview.Message, userMessage string) (*schema.Message, error) {
	input := s.buildChainInput(session, profile, history, userMessage)

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to run interview chain: %w", err)
	}
	if strings.TrimSpace(response.Content) == "" {
		return nil, ErrNoReply
	}

	s.log.Debug().
		Str("session_id", session.ID).
		Str("interviewer", profile.ID).
		Int("length", len(response.Content)).
		Msg("generated reply")
	return response, nil
}

// StreamReply produces an interviewer reply as a chunk stream. Callers
// consume the stream fully and merge chunks with schema.ConcatMessages.
func (s *Service) StreamReply(ctx context.Context, session interview.Session, profile *interviewer.Profile, history []interview.Message, userMessage string) (*schema.StreamReader[*schema.Message], error) {
	if !s.StreamingEnabled() {
		return nil, fmt.Errorf("streaming disabled in configuration")
	}

	input := s.buildChainInput(session, profile, history, userMessage)

	stream, err := s.chain.Stream(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to stream interview chain output: %w", err)
	}
	return stream, nil
}

func (s *Service) buildChainInput(session interview.Session, profile *interviewer.Profile, history []interview.Message, userMessage string) map[string]any {
	return map[string]any{
		"system":  BuildSystemPrompt(profile, session.TargetRole, session.Level),
		"history": s.buildHistoryMessages(history),
		"query":   userMessage,
	}
}

func (s *Service) buildHistoryMessages(messages []interview.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	limit := s.cfg.HistoryLimit
	if limit <= 0 {
		limit = 20
	}

	startIdx := 0
	if len(messages) > limit {
		startIdx = len(messages) - limit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Role {
		case interview.RoleCandidate:
			history = append(history, schema.UserMessage(msg.Content))
		case interview.RoleInterviewer:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return history
}
