// Package consistency turns reasoning-engine findings and pending reconciler flags into
// the ordered issue list shown to the writer.
package consistency

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/inkforge-backend/internal/domain"
	"github.com/yungbote/inkforge-backend/internal/domain/knowledge"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/gateway"
	"github.com/yungbote/inkforge-backend/internal/observability"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
)

// The engine sees only the most recent evidence per character.
const maxEvidencePerCharacter = 40

type Input struct {
	Text       string
	Characters []*types.Character
	Evidence   map[uuid.UUID][]*types.Evidence
	Flags      []*types.CharacterFlag
}

type Checker struct {
	log     *logger.Logger
	gw      gateway.Gateway
	metrics *observability.Metrics
}

func New(log *logger.Logger, gw gateway.Gateway, metrics *observability.Metrics) *Checker {
	if log == nil {
		log = logger.Nop()
	}
	return &Checker{log: log.With("service", "ConsistencyChecker"), gw: gw, metrics: metrics}
}

type ranked struct {
	issue knowledge.ConsistencyIssue
	order int
}

// Check never returns a nil slice on success.
func (c *Checker) Check(ctx context.Context, in Input) ([]knowledge.ConsistencyIssue, error) {
	out := []knowledge.ConsistencyIssue{}
	if len(in.Characters) == 0 {
		return out, nil
	}

	byID := make(map[uuid.UUID]*types.Character, len(in.Characters))
	byKey := make(map[string]*types.Character, len(in.Characters))
	profiles := make([]gateway.ProfileContext, 0, len(in.Characters))
	for _, ch := range in.Characters {
		if ch == nil {
			continue
		}
		byID[ch.ID] = ch
		byKey[knowledge.NameKey(ch.Name)] = ch
		profiles = append(profiles, profileContext(ch, in.Evidence[ch.ID]))
	}

	findings, err := c.gw.FindContradictions(ctx, in.Text, profiles)
	if err != nil {
		return nil, err
	}

	issues := make([]ranked, 0, len(findings)+len(in.Flags))
	for _, f := range findings {
		ch := resolve(f, byID, byKey)
		if ch == nil {
			c.log.Warn("Dropped finding for unknown character", "character_id", f.CharacterID, "character_name", f.CharacterName)
			c.metrics.IncGatewayDropped("find_contradictions", "unknown_character")
			continue
		}
		issues = append(issues, ranked{issue: fromFinding(ch, f), order: len(issues)})
	}
	for _, fl := range in.Flags {
		if fl == nil {
			continue
		}
		ch, ok := byID[fl.CharacterID]
		if !ok {
			continue
		}
		issues = append(issues, ranked{issue: fromFlag(ch, fl), order: len(issues)})
	}

	sort.SliceStable(issues, func(i, j int) bool {
		a, b := strings.ToLower(issues[i].issue.CharacterName), strings.ToLower(issues[j].issue.CharacterName)
		if a != b {
			return a < b
		}
		return issues[i].order < issues[j].order
	})

	seen := make(map[string]bool, len(issues))
	for _, r := range issues {
		key := issueKey(r.issue)
		if seen[key] {
			continue
		}
		seen[key] = true
		c.metrics.IncIssue(string(r.issue.IssueType))
		out = append(out, r.issue)
	}
	return out, nil
}

func profileContext(ch *types.Character, rows []*types.Evidence) gateway.ProfileContext {
	if len(rows) > maxEvidencePerCharacter {
		rows = rows[len(rows)-maxEvidencePerCharacter:]
	}
	ev := make([]gateway.EvidenceContext, 0, len(rows))
	for _, r := range rows {
		if r == nil || strings.TrimSpace(r.Snippet) == "" {
			continue
		}
		ev = append(ev, gateway.EvidenceContext{Field: r.Field, Snippet: r.Snippet})
	}
	return gateway.ProfileContext{
		CharacterID: ch.ID,
		Name:        ch.Name,
		Profile:     ch.Profile.Data(),
		Evidence:    ev,
	}
}

// resolve matches by id first, then by normalized name.
func resolve(f gateway.Finding, byID map[uuid.UUID]*types.Character, byKey map[string]*types.Character) *types.Character {
	if id, err := uuid.Parse(strings.TrimSpace(f.CharacterID)); err == nil {
		if ch, ok := byID[id]; ok {
			return ch
		}
	}
	if key := knowledge.NameKey(f.CharacterName); key != "" {
		return byKey[key]
	}
	return nil
}

func fromFinding(ch *types.Character, f gateway.Finding) knowledge.ConsistencyIssue {
	snippets := append([]string(nil), f.Snippets...)
	if len(snippets) == 0 {
		for _, s := range []string{f.PriorSnippet, f.NewSnippet} {
			if s != "" {
				snippets = append(snippets, s)
			}
		}
	}
	issue := knowledge.ConsistencyIssue{
		CharacterID:      ch.ID,
		CharacterName:    ch.Name,
		IssueType:        f.Kind,
		Description:      f.Description,
		EvidenceSnippets: snippets,
	}
	if f.Kind != knowledge.IssueContradiction {
		return issue
	}

	prev, cur := f.PriorSnippet, f.NewSnippet
	if prev == "" && len(f.Snippets) > 1 {
		prev = f.Snippets[0]
	}
	if cur == "" && len(f.Snippets) > 1 {
		cur = f.Snippets[len(f.Snippets)-1]
	}
	if prev == "" || cur == "" || prev == cur {
		issue.IssueType = knowledge.IssueInconsistency
		return issue
	}
	issue.ConflictingEvidence = knowledge.ConflictingEvidence{Previous: prev, Current: cur}
	return issue
}

func fromFlag(ch *types.Character, fl *types.CharacterFlag) knowledge.ConsistencyIssue {
	snippets := []string{}
	if s := strings.TrimSpace(fl.Snippet); s != "" {
		snippets = append(snippets, s)
	}
	return knowledge.ConsistencyIssue{
		CharacterID:      ch.ID,
		CharacterName:    ch.Name,
		IssueType:        knowledge.IssuePlotHole,
		Description:      fmt.Sprintf("%s appears to move back in their arc from %q to %q.", ch.Name, fl.FromStage, fl.ToStage),
		EvidenceSnippets: snippets,
	}
}

func issueKey(i knowledge.ConsistencyIssue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%s|%s", i.CharacterID, i.IssueType, i.Description, strings.Join(i.EvidenceSnippets, "\x1f"))
	if !i.ConflictingEvidence.IsZero() {
		fmt.Fprintf(&b, "|%s|%s", i.ConflictingEvidence.Previous, i.ConflictingEvidence.Current)
	}
	return b.String()
}
