package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"

	"harlowe-toolbox/internal/nouns"
)

// Querier reads the glossary back from Neo4j.
type Querier struct {
	driver neo4j.DriverWithContext
}

// NewQuerier creates a new graph querier.
func NewQuerier(driver neo4j.DriverWithContext) *Querier {
	return &Querier{driver: driver}
}

// Rows returns every stored form in import order.
func (q *Querier) Rows(ctx context.Context) ([]nouns.Row, error) {
	session := q.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (n:ProperNoun)-[:HAS_FORM]->(f:Form)
		RETURN n.name AS name, f.form AS form, f.type AS type,
		       f.literal AS literal, f.target AS target
		ORDER BY n.ord, f.ord
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("query glossary: %w", err)
	}

	var rows []nouns.Row
	for result.Next(ctx) {
		rows = append(rows, rowOf(result.Record().AsMap()))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read glossary: %w", err)
	}
	return rows, nil
}

// Load builds the stored glossary.
func (q *Querier) Load(ctx context.Context) (nouns.Glossary, error) {
	rows, err := q.Rows(ctx)
	if err != nil {
		return nil, err
	}
	g, err := nouns.Build(rows)
	if err != nil {
		return nil, fmt.Errorf("build glossary from graph: %w", err)
	}

	log.Info().Int("names", len(g)).Int("forms", g.Len()).Msg("Loaded glossary from graph")
	return g, nil
}

func rowOf(rec map[string]any) nouns.Row {
	str := func(k string) string {
		s, _ := rec[k].(string)
		return s
	}
	return nouns.Row{
		Name:    str("name"),
		Form:    str("form"),
		Type:    str("type"),
		Literal: str("literal"),
		Target:  str("target"),
	}
}
