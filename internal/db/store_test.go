package db

import (
	"strings"
	"testing"

	"github.com/jorisv/dienst-catalogus/internal/search"
)

func TestBuildWhere(t *testing.T) {
	tests := []struct {
		name     string
		q        search.ComposedQuery
		contains []string
		wantArgs int
		wantText int
	}{
		{
			name:     "empty query matches everything",
			q:        search.ComposedQuery{},
			contains: []string{"WHERE 1=1"},
			wantArgs: 0,
			wantText: 0,
		},
		{
			name:     "text query uses dutch full-text plus name fallback",
			q:        search.ComposedQuery{Text: "subsidie sport"},
			contains: []string{"websearch_to_tsquery('dutch', $1)", "naam ILIKE"},
			wantArgs: 1,
			wantText: 1,
		},
		{
			name:     "theme filter uses array overlap",
			q:        search.ComposedQuery{Themes: []string{"Sport"}},
			contains: []string{"themas && $1"},
			wantArgs: 1,
			wantText: 0,
		},
		{
			name:     "municipality filter",
			q:        search.ComposedQuery{Municipality: "Leuven"},
			contains: []string{"gemeente ILIKE $1"},
			wantArgs: 1,
			wantText: 0,
		},
		{
			name: "all filters number their args in order",
			q: search.ComposedQuery{
				Text:         "subsidie",
				Themes:       []string{"Sport"},
				Municipality: "Leuven",
			},
			contains: []string{"$1", "themas && $2", "gemeente ILIKE $3"},
			wantArgs: 3,
			wantText: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args, argIdx, textArg := buildWhere(tt.q)
			for _, frag := range tt.contains {
				if !strings.Contains(where, frag) {
					t.Errorf("clause %q missing fragment %q", where, frag)
				}
			}
			if len(args) != tt.wantArgs {
				t.Errorf("expected %d args, got %d", tt.wantArgs, len(args))
			}
			if argIdx != tt.wantArgs+1 {
				t.Errorf("expected next arg index %d, got %d", tt.wantArgs+1, argIdx)
			}
			if textArg != tt.wantText {
				t.Errorf("expected text arg %d, got %d", tt.wantText, textArg)
			}
		})
	}
}

func TestOrderClause(t *testing.T) {
	tests := []struct {
		name    string
		q       search.ComposedQuery
		hasText bool
		want    string
		wantErr bool
	}{
		{
			name: "profile ranking gets a deterministic candidate order",
			q:    search.ComposedQuery{RankByProfile: true},
			want: " ORDER BY naam ASC, id ASC",
		},
		{
			name:    "relevance with text sorts on score",
			q:       search.ComposedQuery{SortField: search.SortRelevance},
			hasText: true,
			want:    " ORDER BY score DESC, naam ASC",
		},
		{
			name: "relevance without text falls back to name",
			q:    search.ComposedQuery{SortField: search.SortRelevance},
			want: " ORDER BY naam ASC, id ASC",
		},
		{
			name: "name sort honors direction",
			q:    search.ComposedQuery{SortField: search.SortName, SortOrder: "desc"},
			want: " ORDER BY naam DESC, id ASC",
		},
		{
			name: "date sort pushes nulls last",
			q:    search.ComposedQuery{SortField: search.SortLastModified, SortOrder: "asc"},
			want: " ORDER BY laatste_wijzigingsdatum ASC NULLS LAST, naam ASC",
		},
		{
			name: "unknown field passes through quoted",
			q:    search.ComposedQuery{SortField: "gemeente", SortOrder: "asc"},
			want: ` ORDER BY "gemeente" ASC, id ASC`,
		},
		{
			name:    "injection attempt is rejected",
			q:       search.ComposedQuery{SortField: "naam; DROP TABLE diensten"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := orderClause(tt.q, tt.hasText)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestEmptyIfNil(t *testing.T) {
	if got := emptyIfNil(nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty slice, got %v", got)
	}
	in := []string{"a"}
	if got := emptyIfNil(in); len(got) != 1 || got[0] != "a" {
		t.Errorf("expected passthrough, got %v", got)
	}
}
