package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"wa-concierge-be/pkg/llm"
)

const classifySystemPrompt = `You are a reliable AI assistant for classifying questions. Classify the user's question into one of these classes:
%s

Here is the explanation of each class as context to help decide the question's class:
%s

Respond with a JSON object: {"question_class": "<class>"}`

// Classifier resolves conversation history to a single leaf intent by
// descending the fixed taxonomy, asking the model to pick one tag per level.
type Classifier struct {
	provider llm.LLMProvider
	root     *Node
}

func NewClassifier(provider llm.LLMProvider) *Classifier {
	return &Classifier{
		provider: provider,
		root:     Taxonomy(),
	}
}

type classResult struct {
	QuestionClass string `json:"question_class"`
}

func (c *Classifier) Classify(ctx context.Context, history []llm.Message) (Leaf, error) {
	node := c.root
	for !node.IsLeaf() {
		picked, err := c.pick(ctx, history, node)
		if err != nil {
			return "", err
		}
		node = picked
	}
	return node.Leaf, nil
}

func (c *Classifier) pick(ctx context.Context, history []llm.Message, node *Node) (*Node, error) {
	tags := make([]string, 0, len(node.Subclasses))
	descriptions := make([]string, 0, len(node.Subclasses))
	for _, sub := range node.Subclasses {
		tags = append(tags, sub.Tag)
		descriptions = append(descriptions, fmt.Sprintf("- %s: %s", sub.Tag, sub.Description))
	}

	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{
		Role:    "system",
		Content: fmt.Sprintf(classifySystemPrompt, strings.Join(tags, ", "), strings.Join(descriptions, "\n")),
	})
	messages = append(messages, history...)

	raw, err := c.provider.Chat(ctx, messages,
		llm.WithTemperature(0),
		llm.WithJSONOutput(),
	)
	if err != nil {
		return nil, fmt.Errorf("classify intent: %w", err)
	}

	var result classResult
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &result); err != nil {
		return nil, fmt.Errorf("parse intent response %q: %w", raw, err)
	}

	child := node.child(strings.TrimSpace(result.QuestionClass))
	if child == nil {
		return nil, fmt.Errorf("unknown intent class %q", result.QuestionClass)
	}
	return child, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
