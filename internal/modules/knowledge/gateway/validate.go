package gateway

import (
	"strings"

	"github.com/yungbote/inkforge-backend/internal/domain/knowledge"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/stages"
	"github.com/yungbote/inkforge-backend/internal/observability"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
)

const (
	callExtract        = "extract"
	callContradictions = "find_contradictions"
	callTransform      = "transform"
)

// Drop reasons reported on inkforge_gateway_dropped_total.
const (
	reasonNotObject     = "not_object"
	reasonMissingName   = "missing_name"
	reasonMissingList   = "missing_list"
	reasonWrongShape    = "wrong_shape"
	reasonUnknownStage  = "unknown_stage"
	reasonUnknownKind   = "unknown_kind"
	reasonMissingDesc   = "missing_description"
	reasonMissingTarget = "missing_character"
)

// Validator turns loosely typed provider JSON into domain values. Malformed entries are
// dropped and reported; unknown keys are ignored.
type Validator struct {
	log     *logger.Logger
	stages  *stages.Vocabulary
	metrics *observability.Metrics
}

func NewValidator(log *logger.Logger, vocab *stages.Vocabulary, metrics *observability.Metrics) *Validator {
	if log == nil {
		log = logger.Nop()
	}
	if vocab == nil {
		vocab = stages.Default()
	}
	return &Validator{log: log.With("service", "GatewayValidator"), stages: vocab, metrics: metrics}
}

func (v *Validator) drop(call, reason string, index int) {
	v.log.Warn("Dropped malformed gateway entry", "call", call, "reason", reason, "index", index)
	v.metrics.IncGatewayDropped(call, reason)
}

// Observations reads {"characters": [...]}.
func (v *Validator) Observations(raw map[string]any) []knowledge.Observation {
	items, ok := raw["characters"].([]any)
	if !ok {
		v.drop(callExtract, reasonMissingList, -1)
		return nil
	}
	out := make([]knowledge.Observation, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			v.drop(callExtract, reasonNotObject, i)
			continue
		}
		name := knowledge.CleanName(str(m["name"]))
		if name == "" {
			v.drop(callExtract, reasonMissingName, i)
			continue
		}
		traits, okT := strList(m["traits"])
		motivations, okM := strList(m["motivations"])
		rels, okR := relationships(m["relationships"])
		if !okT || !okM || !okR {
			v.drop(callExtract, reasonWrongShape, i)
			continue
		}
		obs := knowledge.Observation{
			Name:                name,
			Context:             str(m["context"]),
			Traits:              traits,
			Motivations:         motivations,
			Relationships:       rels,
			PhysicalDescription: str(m["physical_description"]),
			Background:          str(m["background"]),
			Reasoning:           str(m["reasoning"]),
		}
		if es, ok := m["emotional_state"].(map[string]any); ok {
			obs.EmotionalCurrent = str(es["current"])
			obs.EmotionalTrajectory = str(es["trajectory"])
		}
		if arc, ok := m["arc_progression"].(map[string]any); ok {
			obs.ArcNotes = str(arc["notes"])
			// An unknown stage loses only the stage; the rest of the entry stands.
			if stage := str(arc["stage"]); stage != "" {
				if v.stages.Valid(stage) {
					obs.Stage = stages.Normalize(stage)
				} else {
					v.drop(callExtract, reasonUnknownStage, i)
				}
			}
		}
		out = append(out, obs)
	}
	return out
}

// Findings reads {"issues": [...]}.
func (v *Validator) Findings(raw map[string]any) []Finding {
	items, ok := raw["issues"].([]any)
	if !ok {
		v.drop(callContradictions, reasonMissingList, -1)
		return nil
	}
	out := make([]Finding, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			v.drop(callContradictions, reasonNotObject, i)
			continue
		}
		f := Finding{
			CharacterID:   str(m["character_id"]),
			CharacterName: knowledge.CleanName(str(m["character_name"])),
			Kind:          knowledge.IssueKind(strings.ToLower(str(m["issue_type"]))),
			Description:   str(m["description"]),
			PriorSnippet:  str(m["previous_snippet"]),
			NewSnippet:    str(m["current_snippet"]),
		}
		snippets, okS := strList(m["evidence_snippets"])
		switch {
		case f.CharacterID == "" && f.CharacterName == "":
			v.drop(callContradictions, reasonMissingTarget, i)
			continue
		case !f.Kind.Valid():
			v.drop(callContradictions, reasonUnknownKind, i)
			continue
		case f.Description == "":
			v.drop(callContradictions, reasonMissingDesc, i)
			continue
		case !okS:
			v.drop(callContradictions, reasonWrongShape, i)
			continue
		}
		f.Snippets = snippets
		out = append(out, f)
	}
	return out
}

// Transform reads {"replacement_text", "explanation"}. A missing replacement is a
// provider failure, not an empty edit.
func (v *Validator) Transform(raw map[string]any) (TransformResult, bool) {
	res := TransformResult{
		ReplacementText: str(raw["replacement_text"]),
		Explanation:     str(raw["explanation"]),
	}
	if res.ReplacementText == "" {
		v.drop(callTransform, reasonWrongShape, -1)
		return TransformResult{}, false
	}
	return res, true
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// strList accepts a missing value or null as empty and rejects anything that is not a
// list of strings.
func strList(v any) ([]string, bool) {
	if v == nil {
		return nil, true
	}
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return cleanList(out), true
}

// relationships accepts either [{name, label}] (the strict schema shape) or a plain
// name → label object.
func relationships(v any) (map[string]string, bool) {
	switch rel := v.(type) {
	case nil:
		return nil, true
	case map[string]any:
		out := make(map[string]string, len(rel))
		for k, val := range rel {
			label, ok := val.(string)
			if !ok {
				return nil, false
			}
			if k, label = knowledge.CleanName(k), strings.TrimSpace(label); k != "" && label != "" {
				out[k] = label
			}
		}
		return out, true
	case []any:
		out := make(map[string]string, len(rel))
		for _, it := range rel {
			m, ok := it.(map[string]any)
			if !ok {
				return nil, false
			}
			k, label := knowledge.CleanName(str(m["name"])), str(m["label"])
			if k != "" && label != "" {
				out[k] = label
			}
		}
		return out, true
	}
	return nil, false
}
