package knowledge

import "github.com/google/uuid"

type IssueKind string

const (
	IssueContradiction IssueKind = "contradiction"
	IssueInconsistency IssueKind = "inconsistency"
	IssuePlotHole      IssueKind = "plot_hole"
)

func (k IssueKind) Valid() bool {
	switch k {
	case IssueContradiction, IssueInconsistency, IssuePlotHole:
		return true
	}
	return false
}

// ConflictingEvidence is the prior/new snippet pair of a contradiction. It is always
// present on the wire; other issue kinds carry empty strings.
type ConflictingEvidence struct {
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

func (c ConflictingEvidence) IsZero() bool { return c.Previous == "" && c.Current == "" }

// ConsistencyIssue is one problem reported back to the writer.
type ConsistencyIssue struct {
	CharacterID         uuid.UUID           `json:"character_id"`
	CharacterName       string              `json:"character_name"`
	IssueType           IssueKind           `json:"issue_type"`
	Description         string              `json:"description"`
	EvidenceSnippets    []string            `json:"evidence_snippets"`
	ConflictingEvidence ConflictingEvidence `json:"conflicting_evidence"`
}
