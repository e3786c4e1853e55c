// Package graph stores the proper-noun glossary in Neo4j as
// (:ProperNoun)-[:HAS_FORM]->(:Form) so several projects can share it.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"

	"harlowe-toolbox/internal/nouns"
)

// Builder writes glossary rows to Neo4j.
type Builder struct {
	driver neo4j.DriverWithContext
}

// NewBuilder creates a new graph builder.
func NewBuilder(driver neo4j.DriverWithContext) *Builder {
	return &Builder{driver: driver}
}

// EnsureSchema creates constraints on the Neo4j database.
func (b *Builder) EnsureSchema(ctx context.Context) error {
	session := b.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (n:ProperNoun) REQUIRE n.name IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (f:Form) REQUIRE f.key IS UNIQUE",
	}
	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Info().Msg("Graph schema ensured")
	return nil
}

// formParams flattens rows into query parameters. Rows are validated first so
// a bad pattern never reaches the database. Rows without a name are dropped,
// and only the first row of every name.form key is kept.
func formParams(rows []nouns.Row) ([]map[string]any, error) {
	if _, err := nouns.Build(rows); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	nameOrd := make(map[string]int)
	var out []map[string]any
	for _, r := range rows {
		if r.Name == "" {
			continue
		}
		key := nouns.Key(r.Name, r.Form)
		if seen[key] {
			continue
		}
		seen[key] = true
		if _, ok := nameOrd[r.Name]; !ok {
			nameOrd[r.Name] = len(nameOrd)
		}
		out = append(out, map[string]any{
			"name":    r.Name,
			"nameOrd": nameOrd[r.Name],
			"key":     key,
			"form":    r.Form,
			"type":    r.Type,
			"literal": r.Literal,
			"target":  r.Target,
			"formOrd": len(out),
		})
	}
	return out, nil
}

// Import upserts glossary rows. Existing forms keep their identity and get
// the row's literal, type and target; new ones are ordered after everything
// already stored.
func (b *Builder) Import(ctx context.Context, rows []nouns.Row) (int, error) {
	params, err := formParams(rows)
	if err != nil {
		return 0, fmt.Errorf("validate glossary: %w", err)
	}
	if len(params) == 0 {
		return 0, nil
	}

	session := b.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			OPTIONAL MATCH (m:ProperNoun)
			WITH coalesce(max(m.ord) + 1, 0) AS nameBase
			OPTIONAL MATCH (g:Form)
			WITH nameBase, coalesce(max(g.ord) + 1, 0) AS formBase
			UNWIND $forms AS row
			MERGE (n:ProperNoun {name: row.name})
			ON CREATE SET n.ord = nameBase + row.nameOrd
			MERGE (f:Form {key: row.key})
			ON CREATE SET f.ord = formBase + row.formOrd
			SET f.form = row.form,
			    f.type = row.type,
			    f.literal = row.literal,
			    f.target = row.target
			MERGE (n)-[:HAS_FORM]->(f)
		`, map[string]any{"forms": params})
		if err != nil {
			return nil, err
		}
		_, err = result.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return 0, fmt.Errorf("import glossary: %w", err)
	}

	log.Info().Int("forms", len(params)).Msg("Imported glossary into graph")
	return len(params), nil
}
