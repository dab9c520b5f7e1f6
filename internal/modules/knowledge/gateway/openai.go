package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/inkforge-backend/internal/domain/knowledge"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/stages"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
	"github.com/yungbote/inkforge-backend/internal/platform/openai"
)

type openAIGateway struct {
	log       *logger.Logger
	client    openai.Client
	validator *Validator
	stages    *stages.Vocabulary
}

// NewOpenAI adapts an OpenAI Responses client to Gateway.
func NewOpenAI(log *logger.Logger, client openai.Client, validator *Validator) Gateway {
	if log == nil {
		log = logger.Nop()
	}
	if validator == nil {
		validator = NewValidator(log, nil, nil)
	}
	return &openAIGateway{
		log:       log.With("service", "OpenAIGateway"),
		client:    client,
		validator: validator,
		stages:    validator.stages,
	}
}

func (g *openAIGateway) Extract(ctx context.Context, text string) ([]knowledge.Observation, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	system := fmt.Sprintf(`You read fiction and report what the text reveals about each named character.
Only report what this passage supports. Quote the supporting sentence as context.
Use an arc stage only when the passage clearly places the character; allowed stages: %s.
Leave a field null when the passage says nothing about it.`, strings.Join(g.stages.Stages(), ", "))

	raw, err := g.client.GenerateJSON(ctx, system, text, "character_observations", extractSchema(g.stages.Stages()))
	if err != nil {
		return nil, Classify(err)
	}
	return g.validator.Observations(raw), nil
}

func (g *openAIGateway) FindContradictions(ctx context.Context, text string, profiles []ProfileContext) ([]Finding, error) {
	if len(profiles) == 0 {
		return nil, nil
	}
	known, err := json.Marshal(profiles)
	if err != nil {
		return nil, err
	}
	system := `You are a continuity editor. Compare the new text against what is already known about each character.
Report only real problems: contradiction (the text states the opposite of recorded evidence),
inconsistency (behaviour that does not fit the profile without explanation) or plot_hole.
Reference characters by the character_id given. Quote the earlier evidence as previous_snippet and the new text as current_snippet.`
	user := "Known characters:\n" + string(known) + "\n\nNew text:\n" + text

	raw, err := g.client.GenerateJSON(ctx, system, user, "consistency_issues", findingsSchema)
	if err != nil {
		return nil, Classify(err)
	}
	return g.validator.Findings(raw), nil
}

func (g *openAIGateway) Transform(ctx context.Context, req TransformRequest) (TransformResult, error) {
	system := `You are a fiction editor. Rewrite the given text following the instruction.
Keep the point of view, tense, tone and every character name unless the instruction says otherwise.
Return the replacement text and a one or two sentence explanation of what changed.`

	var user strings.Builder
	fmt.Fprintf(&user, "Instruction: %s\nScope: %s\n", req.Instruction, req.Scope)
	if names := cleanList(req.CharacterNames); len(names) > 0 {
		fmt.Fprintf(&user, "Characters: %s\n", strings.Join(names, ", "))
	}
	if len(req.Profiles) > 0 {
		if b, err := json.Marshal(req.Profiles); err == nil {
			fmt.Fprintf(&user, "Character profiles: %s\n", b)
		}
	}
	user.WriteString("\nText:\n")
	user.WriteString(req.Text)

	raw, err := g.client.GenerateJSON(ctx, system, user.String(), "transform_result", transformSchema)
	if err != nil {
		return TransformResult{}, Classify(err)
	}
	res, ok := g.validator.Transform(raw)
	if !ok {
		return TransformResult{}, Classify(fmt.Errorf("transform returned no replacement text"))
	}
	return res, nil
}

func nullable(t string) map[string]any {
	return map[string]any{"type": []any{t, "null"}}
}

func nullableStrings() map[string]any {
	return map[string]any{"type": []any{"array", "null"}, "items": map[string]any{"type": "string"}}
}

func object(props map[string]any) map[string]any {
	required := make([]any, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func extractSchema(stageNames []string) map[string]any {
	enum := make([]any, 0, len(stageNames)+1)
	for _, s := range stageNames {
		enum = append(enum, s)
	}
	enum = append(enum, nil)

	relationship := object(map[string]any{
		"name":  map[string]any{"type": "string"},
		"label": map[string]any{"type": "string"},
	})
	character := object(map[string]any{
		"name":        map[string]any{"type": "string"},
		"context":     map[string]any{"type": "string"},
		"traits":      nullableStrings(),
		"motivations": nullableStrings(),
		"emotional_state": object(map[string]any{
			"current":    nullable("string"),
			"trajectory": nullable("string"),
		}),
		"arc_progression": object(map[string]any{
			"stage": map[string]any{"type": []any{"string", "null"}, "enum": enum},
			"notes": nullable("string"),
		}),
		"relationships":        map[string]any{"type": []any{"array", "null"}, "items": relationship},
		"physical_description": nullable("string"),
		"background":           nullable("string"),
		"reasoning":            map[string]any{"type": "string"},
	})
	return object(map[string]any{
		"characters": map[string]any{"type": "array", "items": character},
	})
}

var findingsSchema = object(map[string]any{
	"issues": map[string]any{
		"type": "array",
		"items": object(map[string]any{
			"character_id":      map[string]any{"type": "string"},
			"character_name":    map[string]any{"type": "string"},
			"issue_type":        map[string]any{"type": "string", "enum": []any{"contradiction", "inconsistency", "plot_hole"}},
			"description":       map[string]any{"type": "string"},
			"evidence_snippets": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"previous_snippet":  nullable("string"),
			"current_snippet":   nullable("string"),
		}),
	},
})

var transformSchema = object(map[string]any{
	"replacement_text": map[string]any{"type": "string"},
	"explanation":      map[string]any{"type": "string"},
})
