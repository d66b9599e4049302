package llm

import (
	"context"
	"errors"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
)

type VertexGemini struct {
	client    *vertexgenai.Client
	modelName string
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName, credentialsFile string) (*VertexGemini, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	c, err := vertexgenai.NewClient(ctx, projectID, location, opts...)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &VertexGemini{client: c, modelName: modelName}, nil
}

func (v *VertexGemini) Name() string { return "vertex:" + v.modelName }

func (v *VertexGemini) Close() error { return v.client.Close() }

// Complete maps system messages to the system instruction and the rest to a
// single prompt, since every call here is one-shot.
func (v *VertexGemini) Complete(ctx context.Context, r Request) (string, error) {
	m := v.client.GenerativeModel(v.modelName)
	if r.Temperature > 0 {
		m.SetTemperature(float32(r.Temperature))
	}
	if r.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(r.MaxTokens))
	}

	var system, prompt []string
	for _, msg := range r.Messages {
		if msg.Role == RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		prompt = append(prompt, msg.Content)
	}
	if len(system) > 0 {
		m.SystemInstruction = &vertexgenai.Content{
			Parts: []vertexgenai.Part{vertexgenai.Text(strings.Join(system, "\n\n"))},
		}
	}

	resp, err := m.GenerateContent(ctx, vertexgenai.Text(strings.Join(prompt, "\n\n")))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		break
	}
	if sb.Len() == 0 {
		return "", errors.New("vertex: empty response")
	}
	return strings.TrimSpace(sb.String()), nil
}
