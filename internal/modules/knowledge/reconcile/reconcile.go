// Package reconcile merges extracted observations into an existing character profile.
// It performs no I/O; callers provide serialization and persistence.
package reconcile

import (
	"sort"
	"strings"
	"unicode"

	"github.com/yungbote/inkforge-backend/internal/domain/knowledge"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/stages"
)

// Change is one atomic field change and becomes one evidence row.
type Change struct {
	Field     string
	Snippet   string
	Delta     knowledge.ProfileDelta
	Reasoning string
}

// Flag is an observation that could not be applied.
type Flag struct {
	Kind      string
	Snippet   string
	FromStage string
	ToStage   string
}

type Result struct {
	Profile knowledge.Profile
	Changes []Change
	Flags   []Flag
}

func (r Result) Changed() bool { return len(r.Changes) > 0 }

type Reconciler struct {
	stages *stages.Vocabulary
}

func New(vocab *stages.Vocabulary) *Reconciler {
	if vocab == nil {
		vocab = stages.Default()
	}
	return &Reconciler{stages: vocab}
}

func (r *Reconciler) Stages() *stages.Vocabulary { return r.stages }

// Apply folds observations into current. isNew marks a character that has no stored row
// yet; such characters start at the first stage when no observation names one.
func (r *Reconciler) Apply(current knowledge.Profile, isNew bool, observations []knowledge.Observation) Result {
	m := &merge{stages: r.stages, profile: current.Clone()}
	for _, obs := range observations {
		m.observe(obs)
	}
	if isNew && m.profile.ArcProgression.Stage == "" {
		first := r.stages.First()
		m.profile.ArcProgression.Stage = first
		snippet := ""
		if len(observations) > 0 {
			snippet = strings.TrimSpace(observations[0].Context)
		}
		m.add(knowledge.FieldArcStage, snippet, "", "first appearance starts the arc at "+first,
			knowledge.ProfileDelta{ArcProgression: &knowledge.ArcProgression{Stage: first}})
	}
	return Result{Profile: m.profile, Changes: m.changes, Flags: m.flags}
}

type merge struct {
	stages  *stages.Vocabulary
	profile knowledge.Profile
	changes []Change
	flags   []Flag
}

func (m *merge) add(field, snippet, reasoning, fallback string, delta knowledge.ProfileDelta) {
	reasoning = strings.TrimSpace(reasoning)
	if reasoning == "" {
		reasoning = fallback
	}
	m.changes = append(m.changes, Change{
		Field:     field,
		Snippet:   snippet,
		Delta:     delta,
		Reasoning: reasoning,
	})
}

func (m *merge) observe(obs knowledge.Observation) {
	snippet := strings.TrimSpace(obs.Context)
	p := &m.profile

	for _, raw := range obs.Traits {
		if t, ok := addToSet(&p.Traits, raw); ok {
			m.add(knowledge.FieldTraits, snippet, obs.Reasoning, "trait shown in text",
				knowledge.ProfileDelta{Traits: []string{t}})
		}
	}
	for _, raw := range obs.Motivations {
		if v, ok := addToSet(&p.Motivations, raw); ok {
			m.add(knowledge.FieldMotivations, snippet, obs.Reasoning, "motivation shown in text",
				knowledge.ProfileDelta{Motivations: []string{v}})
		}
	}

	if prev, next, ok := overwrite(&p.EmotionalState.Current, obs.EmotionalCurrent); ok {
		delta := knowledge.ProfileDelta{EmotionalState: &knowledge.EmotionalState{Current: next}}
		if prev != "" {
			delta.Previous = &knowledge.ProfileDelta{EmotionalState: &knowledge.EmotionalState{Current: prev}}
		}
		m.add(knowledge.FieldEmotionalCurrent, snippet, obs.Reasoning, "emotional state changed", delta)
	}
	if prev, next, ok := overwrite(&p.EmotionalState.Trajectory, obs.EmotionalTrajectory); ok {
		delta := knowledge.ProfileDelta{EmotionalState: &knowledge.EmotionalState{Trajectory: next}}
		if prev != "" {
			delta.Previous = &knowledge.ProfileDelta{EmotionalState: &knowledge.EmotionalState{Trajectory: prev}}
		}
		m.add(knowledge.FieldEmotionalTrajectory, snippet, obs.Reasoning, "emotional trajectory changed", delta)
	}

	m.observeStage(obs, snippet)

	if notes := strings.TrimSpace(obs.ArcNotes); notes != "" {
		cur := p.ArcProgression.Notes
		switch {
		case cur == "":
			p.ArcProgression.Notes = notes
		case containsFold(cur, notes):
		default:
			p.ArcProgression.Notes = cur + "; " + notes
		}
		if p.ArcProgression.Notes != cur {
			m.add(knowledge.FieldArcNotes, snippet, obs.Reasoning, "arc notes extended",
				knowledge.ProfileDelta{ArcProgression: &knowledge.ArcProgression{Notes: p.ArcProgression.Notes}})
		}
	}

	m.observeRelationships(obs, snippet)

	if prev, next, ok := refine(&p.PhysicalDescription, obs.PhysicalDescription); ok {
		delta := knowledge.ProfileDelta{PhysicalDescription: &next}
		if prev != "" {
			delta.Previous = &knowledge.ProfileDelta{PhysicalDescription: &prev}
		}
		m.add(knowledge.FieldPhysicalDescription, snippet, obs.Reasoning, "physical description refined", delta)
	}
	if prev, next, ok := refine(&p.Background, obs.Background); ok {
		delta := knowledge.ProfileDelta{Background: &next}
		if prev != "" {
			delta.Previous = &knowledge.ProfileDelta{Background: &prev}
		}
		m.add(knowledge.FieldBackground, snippet, obs.Reasoning, "background refined", delta)
	}
}

func (m *merge) observeStage(obs knowledge.Observation, snippet string) {
	if strings.TrimSpace(obs.Stage) == "" {
		return
	}
	nextRank, ok := m.stages.Rank(obs.Stage)
	if !ok {
		return
	}
	next := stages.Normalize(obs.Stage)
	cur := m.profile.ArcProgression.Stage
	curRank, known := m.stages.Rank(cur)
	if cur != "" && known {
		if nextRank == curRank {
			return
		}
		if nextRank < curRank {
			m.raise(Flag{
				Kind:      knowledge.FlagStageRegression,
				Snippet:   snippet,
				FromStage: stages.Normalize(cur),
				ToStage:   next,
			})
			return
		}
	}
	m.profile.ArcProgression.Stage = next
	delta := knowledge.ProfileDelta{ArcProgression: &knowledge.ArcProgression{Stage: next}}
	if cur != "" {
		delta.Previous = &knowledge.ProfileDelta{ArcProgression: &knowledge.ArcProgression{Stage: cur}}
	}
	m.add(knowledge.FieldArcStage, snippet, obs.Reasoning, "arc advanced to "+next, delta)
}

func (m *merge) raise(f Flag) {
	for _, existing := range m.flags {
		if existing.Kind == f.Kind && existing.FromStage == f.FromStage && existing.ToStage == f.ToStage {
			return
		}
	}
	m.flags = append(m.flags, f)
}

func (m *merge) observeRelationships(obs knowledge.Observation, snippet string) {
	if len(obs.Relationships) == 0 {
		return
	}
	if m.profile.Relationships == nil {
		m.profile.Relationships = map[string]string{}
	}
	names := make([]string, 0, len(obs.Relationships))
	for name := range obs.Relationships {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, rawName := range names {
		name := knowledge.CleanName(rawName)
		label := strings.TrimSpace(obs.Relationships[rawName])
		if name == "" || label == "" {
			continue
		}
		key, old, exists := lookupFold(m.profile.Relationships, name)
		if exists && strings.EqualFold(old, label) {
			continue
		}
		if !exists {
			key = name
		}
		m.profile.Relationships[key] = label
		delta := knowledge.ProfileDelta{Relationships: map[string]string{key: label}}
		if exists {
			delta.Previous = &knowledge.ProfileDelta{Relationships: map[string]string{key: old}}
		}
		m.add(knowledge.FieldRelationships, snippet, obs.Reasoning, "relationship with "+key+" observed", delta)
	}
}

// addToSet appends raw unless an entry equal to it ignoring case is present.
func addToSet(set *[]string, raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", false
	}
	for _, existing := range *set {
		if strings.EqualFold(strings.TrimSpace(existing), v) {
			return "", false
		}
	}
	*set = append(*set, v)
	return v, true
}

func overwrite(dst *string, raw string) (prev, next string, changed bool) {
	next = strings.TrimSpace(raw)
	prev = *dst
	if next == "" || strings.EqualFold(strings.TrimSpace(prev), next) {
		return prev, prev, false
	}
	*dst = next
	return prev, next, true
}

// refine grows free text without discarding what is already known.
func refine(dst *string, raw string) (prev, next string, changed bool) {
	add := strings.TrimSpace(raw)
	prev = strings.TrimSpace(*dst)
	switch {
	case add == "":
		return prev, prev, false
	case prev == "":
		next = add
	case containsFold(add, prev) && len(add) > len(prev):
		next = add
	case containsFold(prev, add):
		return prev, prev, false
	default:
		next = withSentenceEnd(prev) + " " + add
	}
	*dst = next
	return prev, next, true
}

func withSentenceEnd(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	last := r[len(r)-1]
	switch last {
	case '.', '!', '?', '…', '"', '\'', '”', '’':
		return s
	case ')', ']', '}':
		return s + "."
	}
	// Stored text is never rewritten; trailing commas and dashes are joined with a space.
	if unicode.IsPunct(last) {
		return s
	}
	return s + "."
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func lookupFold(m map[string]string, key string) (string, string, bool) {
	if v, ok := m[key]; ok {
		return key, v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return k, v, true
		}
	}
	return "", "", false
}
