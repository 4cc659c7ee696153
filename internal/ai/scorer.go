package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"comment-radar/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// Scorer assigns a 0-100 score per comment id. The returned map may omit ids
// the model failed to score; callers treat missing entries as "unscored" and
// the merge engine drops those items later.
type Scorer interface {
	ScoreComments(ctx context.Context, comments []model.Comment, instructions string) (map[string]float64, error)
}

// DefaultInstructions is used when a submission carries no prompt override.
const DefaultInstructions = `You are ranking reply opportunities. For each comment, judge how good an
opportunity it is to reply with a helpful, visible answer: specificity of the
question, engagement potential, and how underserved it looks. Score 0-100.`

// OpenAIScorer implements Scorer using the Chat Completions API.
type OpenAIScorer struct {
	client *openai.Client
	model  string
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string // optional
}

func NewOpenAI(cfg Config) *OpenAIScorer {
	var c *openai.Client
	if cfg.BaseURL != "" {
		cc := openai.DefaultConfig(cfg.APIKey)
		cc.BaseURL = cfg.BaseURL
		c = openai.NewClientWithConfig(cc)
	} else {
		c = openai.NewClient(cfg.APIKey)
	}
	model := cfg.Model
	if model == "" {
		panic("OpenAI model must be specified")
	}
	return &OpenAIScorer{client: c, model: model}
}

func (o *OpenAIScorer) ScoreComments(ctx context.Context, comments []model.Comment, instructions string) (map[string]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()
	if len(comments) == 0 {
		return map[string]float64{}, nil
	}
	if strings.TrimSpace(instructions) == "" {
		instructions = DefaultInstructions
	}

	b := &strings.Builder{}
	for _, c := range comments {
		content := c.Content
		if len([]rune(content)) > 1000 {
			content = string([]rune(content)[:1000])
		}
		fmt.Fprintf(b, "- id=%d likes=%s replies=%s ageDays=%s: %s\n", c.ID, c.Likes, c.Replies, c.TimeAgoDays, content)
	}
	sys := instructions + `
		Return ONLY a JSON object mapping each comment id (as a string) to its
		numeric score, e.g. {"1": 72.5, "2": 10}. No prose, no markdown.`
	user := fmt.Sprintf("Comments to score:\n%s", b.String())

	out, err := o.create(ctx, sys, user)
	if err != nil {
		slog.Error("openai: score comments error", "err", err)
		return nil, err
	}
	scores, err := parseScores(out)
	if err != nil {
		slog.Error("openai: unparseable score reply", "err", err)
		return nil, err
	}
	return scores, nil
}

func (o *OpenAIScorer) create(ctx context.Context, system, user string) (string, error) {
	// Default timeout guard, if caller didn't set one
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second)
		defer cancel()
	}
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// parseScores pulls a {"id": score} object out of a model reply, tolerating
// code fences and surrounding prose.
func parseScores(reply string) (map[string]float64, error) {
	s := strings.TrimSpace(reply)
	if i := strings.Index(s, "{"); i >= 0 {
		if j := strings.LastIndex(s, "}"); j > i {
			s = s[i : j+1]
		}
	}
	var m map[string]float64
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("decode score map: %w", err)
	}
	return m, nil
}
