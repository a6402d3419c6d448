package ai

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/zhouzirui/paw-relay/backend/internal/config"
	"github.com/zhouzirui/paw-relay/backend/internal/logging"
	"github.com/zhouzirui/paw-relay/backend/internal/model/persona"
	"github.com/zhouzirui/paw-relay/backend/internal/model/session"
)

// MaxReplyRunes is the Messenger text limit.
const MaxReplyRunes = 2000

// Service answers free text on behalf of the care persona.
type Service struct {
	personas persona.Store
	chain    compose.Runnable[map[string]any, *schema.Message]
	logger   *zap.Logger
}

// NewService creates the service from the Ark configuration.
func NewService(ctx context.Context, personas persona.Store, cfg config.AIConfig, logger *zap.Logger) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewWithModel(ctx, chatModel, personas, logger)
}

// NewWithModel creates the service on top of an existing chat model.
func NewWithModel(ctx context.Context, chatModel model.BaseChatModel, personas persona.Store, logger *zap.Logger) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		personas: personas,
		chain:    runnable,
		logger:   logging.OrNop(logger).Named("ai"),
	}, nil
}

// Reply generates a short answer to text in the session's locale.
func (s *Service) Reply(ctx context.Context, sess *session.Session, text string) (string, error) {
	agent := s.personas.ByRole(persona.Care)
	input := map[string]any{
		"system": BuildSystemPrompt(agent.Name, sess.FirstName(), sess.Locale()),
		"query":  text,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	reply := truncate(strings.TrimSpace(response.Content), MaxReplyRunes)
	s.logger.Debug("generated reply", zap.String("psid", sess.UserID), zap.Int("length", len(reply)))
	return reply, nil
}

func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit])
}
