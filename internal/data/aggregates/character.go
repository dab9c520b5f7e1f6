package aggregates

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/inkforge-backend/internal/data/repos"
	types "github.com/yungbote/inkforge-backend/internal/domain"
	domainagg "github.com/yungbote/inkforge-backend/internal/domain/aggregates"
	"github.com/yungbote/inkforge-backend/internal/domain/knowledge"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/ledger"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/reconcile"
	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
)

const characterTable = "story_character"

// A concurrent first insert of the same name loses with a conflict; the second attempt
// finds the winner's row and merges into it.
const reconcileAttempts = 2

type CharacterAggregateDeps struct {
	Write      WriteDeps
	Characters repos.CharacterRepo
	Flags      repos.CharacterFlagRepo
	Ledger     *ledger.Ledger
	Reconciler *reconcile.Reconciler
}

type characterAggregate struct {
	deps CharacterAggregateDeps
}

func NewCharacterAggregate(deps CharacterAggregateDeps) domainagg.CharacterAggregate {
	deps.Write = deps.Write.withDefaults()
	if deps.Reconciler == nil {
		deps.Reconciler = reconcile.New(nil)
	}
	return &characterAggregate{deps: deps}
}

func (a *characterAggregate) Reconcile(ctx context.Context, in domainagg.ReconcileCharacterInput) (domainagg.ReconcileCharacterResult, error) {
	const op = "character.reconcile"
	if in.ProjectID == uuid.Nil {
		return domainagg.ReconcileCharacterResult{}, MapError(op, ValidationError("project id required"))
	}
	key := knowledge.NameKey(in.DisplayName)
	if key == "" {
		return domainagg.ReconcileCharacterResult{}, MapError(op, ValidationError("character name required"))
	}

	var out domainagg.ReconcileCharacterResult
	err := runWrite(ctx, a.deps.Write, op, reconcileAttempts, func(dbc dbctx.Context) (WriteReport, error) {
		var err error
		out, err = a.reconcileTx(dbc, key, in)
		if err != nil {
			return WriteReport{}, err
		}
		return WriteReport{Created: out.Created, Evidence: len(out.EvidenceIDs), Flags: out.FlagsRaised}, nil
	})
	if err != nil {
		return domainagg.ReconcileCharacterResult{}, err
	}
	return out, nil
}

func (a *characterAggregate) reconcileTx(dbc dbctx.Context, key string, in domainagg.ReconcileCharacterInput) (domainagg.ReconcileCharacterResult, error) {
	var none domainagg.ReconcileCharacterResult
	row, err := a.deps.Characters.GetByNameKeyForUpdate(dbc, in.ProjectID, key)
	if err != nil {
		return none, err
	}
	isNew := row == nil
	current := knowledge.Profile{}
	if !isNew {
		current = row.Profile.Data()
	}

	res := a.deps.Reconciler.Apply(current, isNew, in.Observations)
	now := time.Now().UTC()

	if isNew {
		row = &types.Character{
			ID:        uuid.New(),
			ProjectID: in.ProjectID,
			Name:      knowledge.CleanName(in.DisplayName),
			NameKey:   key,
			Profile:   datatypes.NewJSONType(res.Profile),
			Version:   1,
			CreatedAt: now,
		}
		if err := a.deps.Characters.Create(dbc, row); err != nil {
			return none, err
		}
	} else {
		err := advanceVersion(dbc, a.deps.Write.DB, characterTable, row.ID, row.Version, map[string]any{
			"profile":    datatypes.NewJSONType(res.Profile),
			"updated_at": now,
		})
		if err != nil {
			return none, err
		}
		row.Version++
	}

	appended, err := a.deps.Ledger.Append(dbc, ledger.Rows(row.ID, in.DocumentID, res.Changes, now))
	if err != nil {
		return none, err
	}
	if len(appended) != len(res.Changes) {
		return none, InvariantError("every profile change needs one evidence row")
	}

	raised := 0
	if len(res.Flags) > 0 {
		flags := make([]*types.CharacterFlag, 0, len(res.Flags))
		for _, f := range res.Flags {
			flags = append(flags, &types.CharacterFlag{
				CharacterID: row.ID,
				DocumentID:  in.DocumentID,
				Kind:        f.Kind,
				Snippet:     strings.TrimSpace(f.Snippet),
				FromStage:   f.FromStage,
				ToStage:     f.ToStage,
				CreatedAt:   now,
			})
		}
		if raised, err = a.deps.Flags.CreateIgnoreDuplicates(dbc, flags); err != nil {
			return none, err
		}
	}

	out := domainagg.ReconcileCharacterResult{
		CharacterID: row.ID,
		Name:        row.Name,
		Created:     isNew,
		Changed:     isNew || res.Changed(),
		EvidenceIDs: make([]uuid.UUID, 0, len(appended)),
		FlagsRaised: raised,
		Version:     row.Version,
		Profile:     res.Profile,
	}
	for _, e := range appended {
		out.EvidenceIDs = append(out.EvidenceIDs, e.ID)
	}
	return out, nil
}
