package research

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/smallnest/stockresearch/store"
	"github.com/tmc/langchaingo/llms"
)

// Classifier decides whether a question needs live data retrieval.
type Classifier interface {
	Classify(ctx context.Context, question string, recent []store.Message) (bool, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, question string, recent []store.Message) (bool, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, question string, recent []store.Message) (bool, error) {
	return f(ctx, question, recent)
}

// LLMClassifier classifies questions with a JSON mode call to a chat model.
type LLMClassifier struct {
	model llms.Model
}

// NewLLMClassifier creates a classifier backed by model.
func NewLLMClassifier(model llms.Model) *LLMClassifier {
	return &LLMClassifier{model: model}
}

type searchDecision struct {
	NeedsSearch *bool `json:"needs_search"`
}

// Classify asks the model for {"needs_search": bool}. recent gives the model enough of
// the conversation to recognise questions about it. Failures are never defaulted.
func (c *LLMClassifier) Classify(ctx context.Context, question string, recent []store.Message) (bool, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, classifierPrompt),
	}
	messages = append(messages, conversation(recent)...)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, question))

	resp, err := c.model.GenerateContent(ctx, messages, llms.WithJSONMode(), llms.WithTemperature(0))
	if err != nil {
		return false, &ClassificationError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return false, &ClassificationError{Err: errors.New("model returned no choices")}
	}

	content := strings.TrimSpace(resp.Choices[0].Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var decision searchDecision
	if err := json.Unmarshal([]byte(content), &decision); err != nil {
		return false, &ClassificationError{Err: err}
	}
	if decision.NeedsSearch == nil {
		return false, &ClassificationError{Err: errors.New("response has no needs_search field")}
	}
	return *decision.NeedsSearch, nil
}

func toMessageContent(m store.Message) llms.MessageContent {
	role := llms.ChatMessageTypeHuman
	switch m.Role {
	case store.RoleSystem:
		role = llms.ChatMessageTypeSystem
	case store.RoleAssistant:
		role = llms.ChatMessageTypeAI
	}
	return llms.TextParts(role, m.Content)
}

// conversation converts the user and assistant messages of msgs. Stored system
// directives carry whole retrieval contexts and are skipped.
func conversation(msgs []store.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == store.RoleSystem {
			continue
		}
		out = append(out, toMessageContent(m))
	}
	return out
}
