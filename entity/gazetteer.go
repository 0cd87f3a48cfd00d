package entity

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// Place is one reference entry in the famous-places lookup.
type Place struct {
	Name       string
	City       string
	Country    string
	Category   string
	Popularity float64
}

// Gazetteer canonicalizes location mentions against a reference place set.
// It is immutable after construction and safe for concurrent lookups.
type Gazetteer struct {
	byAlias map[string]Place
	names   []string
}

// NewGazetteer builds a lookup from places plus optional alias → canonical
// name mappings.
func NewGazetteer(places []Place, aliases map[string]string) *Gazetteer {
	g := &Gazetteer{byAlias: make(map[string]Place, len(places)+len(aliases))}
	byName := make(map[string]Place, len(places))
	for _, p := range places {
		key := strings.ToLower(strings.TrimSpace(p.Name))
		if key == "" {
			continue
		}
		byName[key] = p
		g.byAlias[key] = p
		g.names = append(g.names, p.Name)
	}
	for alias, name := range aliases {
		if p, ok := byName[strings.ToLower(name)]; ok {
			g.byAlias[strings.ToLower(strings.TrimSpace(alias))] = p
			g.names = append(g.names, alias)
		}
	}
	// Longest first so multi-word names win over embedded shorter ones.
	sort.Slice(g.names, func(i, j int) bool { return len(g.names[i]) > len(g.names[j]) })
	return g
}

// OpenSQLite loads a gazetteer from a SQLite places database.
func OpenSQLite(ctx context.Context, path string) (*Gazetteer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open gazetteer db: %w", err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, `SELECT name, city, country, category, popularity FROM places`)
	if err != nil {
		return nil, fmt.Errorf("query places: %w", err)
	}
	defer rows.Close()

	var places []Place
	for rows.Next() {
		var p Place
		if err := rows.Scan(&p.Name, &p.City, &p.Country, &p.Category, &p.Popularity); err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	aliases := map[string]string{}
	aliasRows, err := db.QueryContext(ctx, `SELECT alias, name FROM place_aliases`)
	if err == nil {
		defer aliasRows.Close()
		for aliasRows.Next() {
			var alias, name string
			if err := aliasRows.Scan(&alias, &name); err != nil {
				return nil, err
			}
			aliases[alias] = name
		}
		if err := aliasRows.Err(); err != nil {
			return nil, err
		}
	}
	return NewGazetteer(places, aliases), nil
}

// Seed returns a small built-in gazetteer used when no places database is
// configured.
func Seed() *Gazetteer {
	places := []Place{
		{Name: "Eiffel Tower", City: "Paris", Country: "France", Category: "Monument", Popularity: 9.8},
		{Name: "Louvre Museum", City: "Paris", Country: "France", Category: "Museum", Popularity: 9.6},
		{Name: "Taj Mahal", City: "Agra", Country: "India", Category: "Monument", Popularity: 9.7},
		{Name: "Hawa Mahal", City: "Jaipur", Country: "India", Category: "Palace", Popularity: 8.5},
		{Name: "Gateway of India", City: "Mumbai", Country: "India", Category: "Monument", Popularity: 8.9},
		{Name: "Paris", City: "Paris", Country: "France", Category: "City", Popularity: 9.9},
		{Name: "Lisbon", City: "Lisbon", Country: "Portugal", Category: "City", Popularity: 9.0},
		{Name: "Sintra", City: "Sintra", Country: "Portugal", Category: "City", Popularity: 8.2},
		{Name: "New York (JFK)", City: "New York", Country: "United States", Category: "Airport", Popularity: 9.0},
		{Name: "Paris (CDG)", City: "Paris", Country: "France", Category: "Airport", Popularity: 9.0},
	}
	aliases := map[string]string{
		"JFK":             "New York (JFK)",
		"CDG":             "Paris (CDG)",
		"the Louvre":      "Louvre Museum",
		"Palace of Winds": "Hawa Mahal",
	}
	return NewGazetteer(places, aliases)
}

// Lookup canonicalizes a raw mention; the second return is false when the
// mention is unknown.
func (g *Gazetteer) Lookup(raw string) (Place, bool) {
	p, ok := g.byAlias[strings.ToLower(strings.TrimSpace(raw))]
	return p, ok
}

// Names returns known names and aliases ordered longest first.
func (g *Gazetteer) Names() []string {
	return g.names
}
