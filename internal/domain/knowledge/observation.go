package knowledge

// Observation is what the reasoning engine reports about one character in one text.
// Every field except Name and Context is optional.
type Observation struct {
	Name                string            `json:"name"`
	Context             string            `json:"context"`
	Traits              []string          `json:"traits,omitempty"`
	Motivations         []string          `json:"motivations,omitempty"`
	EmotionalCurrent    string            `json:"emotional_current,omitempty"`
	EmotionalTrajectory string            `json:"emotional_trajectory,omitempty"`
	Stage               string            `json:"stage,omitempty"`
	ArcNotes            string            `json:"arc_notes,omitempty"`
	Relationships       map[string]string `json:"relationships,omitempty"`
	PhysicalDescription string            `json:"physical_description,omitempty"`
	Background          string            `json:"background,omitempty"`
	Reasoning           string            `json:"reasoning,omitempty"`
}
