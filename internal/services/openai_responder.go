package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tbourn/retail-chat-dashboard/internal/domain"
)

// ChatCompleter is the slice of *openai.Client that OpenAIResponder uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIResponder answers with a chat-completion model.
type OpenAIResponder struct {
	Client ChatCompleter
	Model  string
	// Fallback answers when the model call fails or returns nothing.
	Fallback Responder
	// HistoryWindow is how many prior messages are sent as context (default 8).
	HistoryWindow int
	MaxTokens     int
}

// NewOpenAIResponder builds a responder for apiKey/model with fallback.
func NewOpenAIResponder(apiKey, model string, fallback Responder) *OpenAIResponder {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIResponder{
		Client:   openai.NewClient(apiKey),
		Model:    model,
		Fallback: fallback,
	}
}

const systemPrompt = "You are a sales assistant for an apparel and fabric retailer. " +
	"Give concise, practical merchandising, pricing, inventory and promotion advice in Markdown. " +
	"If a question is unrelated to retail sales, say so briefly. Reply in %s."

var errEmptyCompletion = errors.New("empty completion")

// Reply asks the model; on failure it delegates to Fallback and tags the
// result with SourceFallback.
func (o *OpenAIResponder) Reply(ctx context.Context, prompt, lang string, history []domain.Message) (Reply, error) {
	ctx, span := otel.Tracer("services/OpenAIResponder").Start(ctx, "Reply")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", o.Model), attribute.String("reply.language", lang))

	text, err := o.complete(ctx, prompt, lang, history)
	if err == nil {
		return Reply{Content: text, Source: SourceOpenAI}, nil
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "completion failed")
	if o.Fallback == nil {
		return Reply{}, fmt.Errorf("openai: %w", err)
	}
	r, ferr := o.Fallback.Reply(ctx, prompt, lang, history)
	if ferr != nil {
		return Reply{}, ferr
	}
	r.Source = SourceFallback
	return r, nil
}

func (o *OpenAIResponder) complete(ctx context.Context, prompt, lang string, history []domain.Message) (string, error) {
	window := o.HistoryWindow
	if window <= 0 {
		window = 8
	}
	if len(history) > window {
		history = history[len(history)-window:]
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: fmt.Sprintf(systemPrompt, LanguageName(lang)),
	})
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == domain.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := o.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.Model,
		Messages:  msgs,
		MaxTokens: o.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errEmptyCompletion
	}
	return text, nil
}
