// Package graph projects committed character state into Neo4j so relationships can be
// explored as a graph. Postgres stays the source of truth; the projection is rebuilt
// by re-running it.
package graph

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/yungbote/inkforge-backend/internal/domain"
	"github.com/yungbote/inkforge-backend/internal/domain/knowledge"
	"github.com/yungbote/inkforge-backend/internal/observability"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
	"github.com/yungbote/inkforge-backend/internal/platform/neo4jdb"
)

type CharacterGraph interface {
	// Project upserts the characters of one project and their relationship edges.
	Project(ctx context.Context, projectID uuid.UUID, characters []*types.Character) error
}

type characterGraph struct {
	client  *neo4jdb.Client
	log     *logger.Logger
	metrics *observability.Metrics
}

// NewCharacterGraph returns a no-op projection when client is nil.
func NewCharacterGraph(client *neo4jdb.Client, log *logger.Logger, metrics *observability.Metrics) CharacterGraph {
	if log == nil {
		log = logger.Nop()
	}
	return &characterGraph{client: client, log: log.With("service", "CharacterGraph"), metrics: metrics}
}

type graphParams struct {
	Characters []map[string]any
	Relations  []map[string]any
}

func buildParams(projectID uuid.UUID, characters []*types.Character, now string) graphParams {
	p := graphParams{}
	for _, c := range characters {
		if c == nil || c.ID == uuid.Nil || c.ProjectID != projectID {
			continue
		}
		prof := c.Profile.Data()
		key := knowledge.NameKey(c.Name)
		p.Characters = append(p.Characters, map[string]any{
			"id":          c.ID.String(),
			"project_id":  projectID.String(),
			"name":        c.Name,
			"name_key":    key,
			"stage":       prof.ArcProgression.Stage,
			"traits":      append([]string{}, prof.Traits...),
			"motivations": append([]string{}, prof.Motivations...),
			"version":     c.Version,
			"synced_at":   now,
		})
		others := make([]string, 0, len(prof.Relationships))
		for other := range prof.Relationships {
			others = append(others, other)
		}
		sort.Strings(others)
		for _, other := range others {
			dst := knowledge.NameKey(other)
			label := strings.TrimSpace(prof.Relationships[other])
			if dst == "" || dst == key || label == "" {
				continue
			}
			p.Relations = append(p.Relations, map[string]any{
				"project_id": projectID.String(),
				"src_key":    key,
				"dst_key":    dst,
				"dst_name":   knowledge.CleanName(other),
				"label":      label,
				"synced_at":  now,
			})
		}
	}
	return p
}

func (g *characterGraph) Project(ctx context.Context, projectID uuid.UUID, characters []*types.Character) error {
	if g.client == nil || g.client.Driver == nil || projectID == uuid.Nil {
		return nil
	}
	params := buildParams(projectID, characters, time.Now().UTC().Format(time.RFC3339Nano))
	if len(params.Characters) == 0 {
		return nil
	}

	session := g.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: g.client.Database,
	})
	defer session.Close(ctx)

	// Best-effort schema init.
	for _, q := range []string{
		`CREATE CONSTRAINT project_id_unique IF NOT EXISTS FOR (p:Project) REQUIRE p.id IS UNIQUE`,
		`CREATE CONSTRAINT character_project_key_unique IF NOT EXISTS FOR (c:Character) REQUIRE (c.project_id, c.name_key) IS UNIQUE`,
	} {
		if res, err := session.Run(ctx, q, nil); err != nil {
			g.log.Warn("neo4j schema init failed (continuing)", "error", err)
		} else {
			_, _ = res.Consume(ctx)
		}
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (p:Project {id: $project_id})
WITH p
UNWIND $chars AS c
MERGE (ch:Character {project_id: c.project_id, name_key: c.name_key})
SET ch += c
MERGE (p)-[:HAS_CHARACTER]->(ch)
`, map[string]any{"project_id": projectID.String(), "chars": params.Characters})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		if len(params.Relations) == 0 {
			return nil, nil
		}
		// Targets that have no row yet become name-only nodes until they are analyzed.
		res, err = tx.Run(ctx, `
UNWIND $rels AS r
MATCH (a:Character {project_id: r.project_id, name_key: r.src_key})
MERGE (b:Character {project_id: r.project_id, name_key: r.dst_key})
ON CREATE SET b.name = r.dst_name
MERGE (a)-[e:RELATES_TO]->(b)
SET e.label = r.label, e.synced_at = r.synced_at
`, map[string]any{"rels": params.Relations})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		g.metrics.IncGraphProjection("error")
		return err
	}
	g.metrics.IncGraphProjection("success")
	return nil
}
