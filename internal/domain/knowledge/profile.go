package knowledge

import "strings"

// Atomic profile fields. Evidence rows record exactly one of these.
const (
	FieldTraits              = "traits"
	FieldMotivations         = "motivations"
	FieldEmotionalCurrent    = "emotional_state.current"
	FieldEmotionalTrajectory = "emotional_state.trajectory"
	FieldArcStage            = "arc_progression.stage"
	FieldArcNotes            = "arc_progression.notes"
	FieldRelationships       = "relationships"
	FieldPhysicalDescription = "physical_description"
	FieldBackground          = "background"
)

// Profile is the accumulated knowledge about one character.
type Profile struct {
	Traits              []string          `json:"traits"`
	Motivations         []string          `json:"motivations"`
	EmotionalState      EmotionalState    `json:"emotional_state"`
	ArcProgression      ArcProgression    `json:"arc_progression"`
	Relationships       map[string]string `json:"relationships,omitempty"`
	PhysicalDescription string            `json:"physical_description,omitempty"`
	Background          string            `json:"background,omitempty"`
}

type EmotionalState struct {
	Current    string `json:"current,omitempty"`
	Trajectory string `json:"trajectory,omitempty"`
}

type ArcProgression struct {
	Stage string `json:"stage,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// Clone returns a deep copy with non-nil collections.
func (p Profile) Clone() Profile {
	out := p
	out.Traits = append(make([]string, 0, len(p.Traits)), p.Traits...)
	out.Motivations = append(make([]string, 0, len(p.Motivations)), p.Motivations...)
	out.Relationships = make(map[string]string, len(p.Relationships))
	for k, v := range p.Relationships {
		out.Relationships[k] = v
	}
	return out
}

// IsZero reports whether nothing is known about the character yet.
func (p Profile) IsZero() bool {
	return len(p.Traits) == 0 &&
		len(p.Motivations) == 0 &&
		p.EmotionalState == (EmotionalState{}) &&
		p.ArcProgression == (ArcProgression{}) &&
		len(p.Relationships) == 0 &&
		p.PhysicalDescription == "" &&
		p.Background == ""
}

// ProfileDelta is the partial profile stored on an evidence row. Previous holds the
// overwritten side when a change replaced an existing value.
type ProfileDelta struct {
	Traits              []string          `json:"traits,omitempty"`
	Motivations         []string          `json:"motivations,omitempty"`
	EmotionalState      *EmotionalState   `json:"emotional_state,omitempty"`
	ArcProgression      *ArcProgression   `json:"arc_progression,omitempty"`
	Relationships       map[string]string `json:"relationships,omitempty"`
	PhysicalDescription *string           `json:"physical_description,omitempty"`
	Background          *string           `json:"background,omitempty"`
	Previous            *ProfileDelta     `json:"previous,omitempty"`
}

// NameKey is the natural key used to match characters across analyses.
func NameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// CleanName trims and collapses interior whitespace, keeping the original casing.
func CleanName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// FieldMatches reports whether an evidence field falls under the queried field, so
// "emotional_state" matches both of its sub-fields.
func FieldMatches(field, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	return field == query || strings.HasPrefix(field, query+".")
}
