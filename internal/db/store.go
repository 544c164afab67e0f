package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jorisv/dienst-catalogus/internal/models"
	"github.com/jorisv/dienst-catalogus/internal/search"
)

var ErrNotFound = errors.New("dienst not found")

// Store executes composed search queries against Postgres. Full-text matching
// uses the 'dutch' text search configuration; the eligibility condition
// groups are flat TEXT[] columns regrouped into tagged conditions on read.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const selectCols = `id, naam, type, omschrijving, themas, gemeente,
	voorwaarden_vorm, voorwaarden_regio, voorwaarden_thema, voorwaarden_vereniging,
	keywords, laatste_wijzigingsdatum`

func scanDienst(scan func(dest ...interface{}) error) (models.Dienst, error) {
	var d models.Dienst
	var typ, omschrijving, gemeente *string
	var lastModified *time.Time
	var vorm, regio, thema, vereniging []string

	err := scan(
		&d.ID, &d.Name, &typ, &omschrijving, &d.Themes, &gemeente,
		&vorm, &regio, &thema, &vereniging,
		&d.Keywords, &lastModified,
	)
	if err != nil {
		return d, err
	}

	if typ != nil {
		d.Type = *typ
	}
	if omschrijving != nil {
		d.Description = *omschrijving
	}
	if gemeente != nil {
		d.Municipality = *gemeente
	}
	if lastModified != nil {
		d.LastModified = lastModified.Format("2006-01-02")
	}
	d.Conditions = models.ConditionsFromGroups(vorm, regio, thema, vereniging)

	return d, nil
}

// buildWhere translates the base predicate into a WHERE clause: fuzzy-ish
// full-text over naam/omschrijving/themas/gemeente, exact theme membership,
// exact municipality phrase. With neither text nor filters it matches every
// dienst. Returns the clause, its args, the next arg index, and the arg index
// of the text query (0 when absent).
func buildWhere(q search.ComposedQuery) (string, []interface{}, int, int) {
	where := "WHERE 1=1"
	var args []interface{}
	argIdx := 1
	textArg := 0

	if q.Text != "" {
		where += fmt.Sprintf(" AND (search_vector @@ websearch_to_tsquery('dutch', $%d) OR naam ILIKE '%%' || $%d || '%%')", argIdx, argIdx)
		args = append(args, q.Text)
		textArg = argIdx
		argIdx++
	}
	if len(q.Themes) > 0 {
		where += fmt.Sprintf(" AND themas && $%d", argIdx)
		args = append(args, q.Themes)
		argIdx++
	}
	if q.Municipality != "" {
		where += fmt.Sprintf(" AND gemeente ILIKE $%d", argIdx)
		args = append(args, q.Municipality)
		argIdx++
	}

	return where, args, argIdx, textArg
}

var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// orderClause resolves the pushed-down sort. naam and laatste_wijzigingsdatum
// are the special-cased fields; anything else passes through as a literal
// column sort and Postgres rejects unknown columns. Relevance sorts on the
// ts_rank score column when query text is present.
func orderClause(q search.ComposedQuery, hasText bool) (string, error) {
	if q.RankByProfile {
		// Deterministic candidate order; ranking happens in the caller.
		return " ORDER BY naam ASC, id ASC", nil
	}

	dir := strings.ToUpper(q.SortOrder)
	if dir != "ASC" && dir != "DESC" {
		dir = "ASC"
	}

	switch q.SortField {
	case search.SortRelevance:
		if hasText {
			return " ORDER BY score DESC, naam ASC", nil
		}
		return " ORDER BY naam ASC, id ASC", nil
	case search.SortName:
		return fmt.Sprintf(" ORDER BY naam %s, id ASC", dir), nil
	case search.SortLastModified:
		return fmt.Sprintf(" ORDER BY laatste_wijzigingsdatum %s NULLS LAST, naam ASC", dir), nil
	default:
		if !identPattern.MatchString(q.SortField) {
			return "", fmt.Errorf("invalid sort field %q", q.SortField)
		}
		return fmt.Sprintf(` ORDER BY "%s" %s, id ASC`, q.SortField, dir), nil
	}
}

// Search implements search.DocumentStore: one composed query yields the hits,
// the unpaginated total, and the three facet aggregations, all over the same
// filtered set.
func (s *Store) Search(ctx context.Context, q search.ComposedQuery) (*search.StoreResult, error) {
	where, args, argIdx, textArg := buildWhere(q)

	var total int
	countSQL := "SELECT COUNT(*) FROM diensten " + where
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count failed: %w", err)
	}

	scoreExpr := "NULL::float8"
	if textArg > 0 && !q.RankByProfile && q.SortField == search.SortRelevance {
		scoreExpr = fmt.Sprintf("ts_rank(search_vector, websearch_to_tsquery('dutch', $%d))::float8", textArg)
	}

	selectSQL := fmt.Sprintf("SELECT %s, %s AS score FROM diensten %s", selectCols, scoreExpr, where)

	order, err := orderClause(q, textArg > 0)
	if err != nil {
		return nil, err
	}
	selectSQL += order

	selectArgs := args
	if !q.RankByProfile {
		selectSQL += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
		selectArgs = append(append([]interface{}{}, args...), q.Limit, q.Offset)
	}

	rows, err := s.pool.Query(ctx, selectSQL, selectArgs...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var hits []search.StoreHit
	for rows.Next() {
		var score *float64
		d, err := scanDienst(func(dest ...interface{}) error {
			return rows.Scan(append(dest, &score)...)
		})
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		hits = append(hits, search.StoreHit{Dienst: d, TextScore: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	facets, err := s.facets(ctx, where, args)
	if err != nil {
		return nil, err
	}

	return &search.StoreResult{Hits: hits, Total: total, Facets: *facets}, nil
}

// facetLimit mirrors the default terms-aggregation bucket count.
const facetLimit = 10

// facets computes the three aggregations over the filtered set, independent
// of pagination.
func (s *Store) facets(ctx context.Context, where string, args []interface{}) (*search.Facets, error) {
	facets := &search.Facets{}

	themeSQL := fmt.Sprintf(`
		SELECT t.thema, COUNT(*)
		FROM diensten, LATERAL unnest(themas) AS t(thema)
		%s
		GROUP BY t.thema
		ORDER BY COUNT(*) DESC, t.thema ASC
		LIMIT %d`, where, facetLimit)
	themes, err := s.facetQuery(ctx, themeSQL, args)
	if err != nil {
		return nil, fmt.Errorf("thema facet failed: %w", err)
	}
	facets.Themes = themes

	gemeenteSQL := fmt.Sprintf(`
		SELECT gemeente, COUNT(*)
		FROM diensten
		%s AND gemeente IS NOT NULL AND gemeente <> ''
		GROUP BY gemeente
		ORDER BY COUNT(*) DESC, gemeente ASC
		LIMIT %d`, where, facetLimit)
	gemeentes, err := s.facetQuery(ctx, gemeenteSQL, args)
	if err != nil {
		return nil, fmt.Errorf("gemeente facet failed: %w", err)
	}
	facets.Municipalities = gemeentes

	typeSQL := fmt.Sprintf(`
		SELECT type, COUNT(*)
		FROM diensten
		%s AND type IS NOT NULL AND type <> ''
		GROUP BY type
		ORDER BY COUNT(*) DESC, type ASC
		LIMIT %d`, where, facetLimit)
	types, err := s.facetQuery(ctx, typeSQL, args)
	if err != nil {
		return nil, fmt.Errorf("type facet failed: %w", err)
	}
	facets.Types = types

	return facets, nil
}

func (s *Store) facetQuery(ctx context.Context, sql string, args []interface{}) ([]models.Facet, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := []models.Facet{}
	for rows.Next() {
		var f models.Facet
		if err := rows.Scan(&f.Value, &f.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, f)
	}
	return buckets, rows.Err()
}

func (s *Store) GetDienst(ctx context.Context, id string) (*models.Dienst, error) {
	sql := fmt.Sprintf("SELECT %s FROM diensten WHERE id = $1", selectCols)
	row := s.pool.QueryRow(ctx, sql, id)

	d, err := scanDienst(row.Scan)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get dienst failed: %w", err)
	}

	return &d, nil
}

const indexSQL = `
	INSERT INTO diensten (
		id, naam, type, omschrijving, themas, gemeente,
		voorwaarden_vorm, voorwaarden_regio, voorwaarden_thema, voorwaarden_vereniging,
		keywords, laatste_wijzigingsdatum, search_vector, updated_at
	) VALUES (
		$1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, NULLIF($6, ''),
		$7, $8, $9, $10,
		$11, NULLIF($12, '')::date,
		setweight(to_tsvector('dutch', $2), 'A') ||
		setweight(to_tsvector('dutch', $4), 'B') ||
		setweight(to_tsvector('dutch', array_to_string($5, ' ')), 'C') ||
		setweight(to_tsvector('dutch', $6), 'C'),
		NOW()
	)
	ON CONFLICT (id) DO UPDATE SET
		naam = EXCLUDED.naam,
		type = EXCLUDED.type,
		omschrijving = EXCLUDED.omschrijving,
		themas = EXCLUDED.themas,
		gemeente = EXCLUDED.gemeente,
		voorwaarden_vorm = EXCLUDED.voorwaarden_vorm,
		voorwaarden_regio = EXCLUDED.voorwaarden_regio,
		voorwaarden_thema = EXCLUDED.voorwaarden_thema,
		voorwaarden_vereniging = EXCLUDED.voorwaarden_vereniging,
		keywords = EXCLUDED.keywords,
		laatste_wijzigingsdatum = EXCLUDED.laatste_wijzigingsdatum,
		search_vector = EXCLUDED.search_vector,
		updated_at = NOW()`

// IndexAll replaces the catalog wholesale: the ingestion pipeline produces a
// full snapshot, so the table is truncated and rebuilt in one transaction.
// Duplicate ids inside a snapshot (page overlap upstream) keep the last seen
// record.
func (s *Store) IndexAll(ctx context.Context, diensten []models.Dienst) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE diensten"); err != nil {
		return fmt.Errorf("truncate failed: %w", err)
	}

	batch := &pgx.Batch{}
	for _, d := range diensten {
		vorm, regio, thema, vereniging := models.GroupConditions(d.Conditions)
		batch.Queue(indexSQL,
			d.ID, d.Name, d.Type, d.Description, emptyIfNil(d.Themes), d.Municipality,
			emptyIfNil(vorm), emptyIfNil(regio), emptyIfNil(thema), emptyIfNil(vereniging),
			emptyIfNil(d.Keywords), d.LastModified,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range diensten {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("index insert failed: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("batch close failed: %w", err)
	}

	return tx.Commit(ctx)
}

// emptyIfNil keeps NOT NULL array columns happy.
func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func (s *Store) Stats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM diensten").Scan(&total); err != nil {
		return nil, err
	}
	stats["total"] = total

	var gemeentes int
	s.pool.QueryRow(ctx, "SELECT COUNT(DISTINCT gemeente) FROM diensten WHERE gemeente IS NOT NULL").Scan(&gemeentes)
	stats["gemeentes"] = gemeentes

	var restricted int
	s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM diensten WHERE cardinality(voorwaarden_vereniging) > 0").Scan(&restricted)
	stats["ad_nominatum"] = restricted

	typeCounts := map[string]int{}
	rows, err := s.pool.Query(ctx, "SELECT COALESCE(type, ''), COUNT(*) FROM diensten GROUP BY type")
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var typ string
			var count int
			if scanErr := rows.Scan(&typ, &count); scanErr == nil {
				typeCounts[typ] = count
			}
		}
	}
	stats["type_counts"] = typeCounts

	return stats, nil
}
