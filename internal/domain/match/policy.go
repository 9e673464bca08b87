package match

import (
	"strings"

	"github.com/mapfold/poidex/internal/domain"
	"github.com/mapfold/poidex/internal/domain/geo"
)

// Interactive is the pair policy applied during incremental merges in a live
// search: tight radius, fuzzy name similarity.
type Interactive struct {
	MinSimilarity     float64
	MaxDistanceMeters float64
}

// DefaultInteractive returns the tuned interactive thresholds.
func DefaultInteractive() Interactive {
	return Interactive{MinSimilarity: 0.6, MaxDistanceMeters: 500}
}

// Matches reports whether two records describe the same entity under the
// interactive policy. Records without valid coordinates never match.
func (p Interactive) Matches(a, b *domain.Record) bool {
	if !a.Coordinates.Valid() || !b.Coordinates.Valid() {
		return false
	}
	if geo.Distance(a.Coordinates, b.Coordinates) >= p.MaxDistanceMeters {
		return false
	}
	return NameSimilarity(a.Name, b.Name) >= p.MinSimilarity
}

// Batch is the pair policy applied during whole-store maintenance dedup:
// wide radius, base-name comparison, exception-set guard.
type Batch struct {
	MaxDistanceMeters float64
	MinContainRatio   float64
	Exceptions        ExceptionSet
}

// DefaultBatch returns the tuned batch thresholds with no exceptions.
func DefaultBatch() Batch {
	return Batch{MaxDistanceMeters: 10_000, MinContainRatio: 0.6}
}

// Matches reports whether two records are batch-dedup candidates. A pair
// where either member belongs to a configured exception group is never a
// candidate regardless of name and distance.
func (p Batch) Matches(a, b *domain.Record) bool {
	if !a.Coordinates.Valid() || !b.Coordinates.Valid() {
		return false
	}
	if geo.Distance(a.Coordinates, b.Coordinates) >= p.MaxDistanceMeters {
		return false
	}
	if p.Exceptions.Protects(a) || p.Exceptions.Protects(b) {
		return false
	}

	ba, bb := BaseName(a.Name), BaseName(b.Name)
	if ba == "" || bb == "" {
		return false
	}
	if ba == bb {
		return true
	}
	r, ok := containRatio(ba, bb)
	return ok && r >= p.MinContainRatio
}

// ExceptionSet holds named groups of records known to be genuinely distinct
// siblings despite close coordinates and shared name fragments (e.g. a
// cluster of similarly named landmark buildings in one city). Membership is
// decided on the base name.
type ExceptionSet struct {
	groups []exceptionGroup
}

type exceptionGroup struct {
	name      string
	fragments []string
}

// NewExceptionSet builds an exception set from named groups of base-name
// fragments. Fragments are normalized on ingest; empty fragments drop.
func NewExceptionSet(groups map[string][]string) ExceptionSet {
	var set ExceptionSet
	for name, fragments := range groups {
		g := exceptionGroup{name: name}
		for _, f := range fragments {
			if nf := Normalize(f); nf != "" {
				g.fragments = append(g.fragments, nf)
			}
		}
		if len(g.fragments) > 0 {
			set.groups = append(set.groups, g)
		}
	}
	return set
}

// Protects reports whether the record belongs to any exception group.
func (s ExceptionSet) Protects(r *domain.Record) bool {
	return s.GroupOf(r) != ""
}

// GroupOf returns the name of the exception group the record belongs to, or
// the empty string.
func (s ExceptionSet) GroupOf(r *domain.Record) string {
	base := BaseName(r.Name)
	if base == "" {
		return ""
	}
	for _, g := range s.groups {
		for _, f := range g.fragments {
			if strings.Contains(base, f) {
				return g.name
			}
		}
	}
	return ""
}
