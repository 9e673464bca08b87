package score

import (
	"testing"

	"github.com/mapfold/poidex/internal/domain"
)

func TestScore_Empty(t *testing.T) {
	w := Default()
	if got := w.Score(&domain.Record{Name: "Bare"}); got != 0 {
		t.Errorf("want 0, got %f", got)
	}
}

func TestScore_Full(t *testing.T) {
	w := Default()
	r := domain.Record{
		Name:         "Complete",
		ExternalRef:  "osm:1",
		ImageURL:     "https://img",
		MapURL:       "https://map",
		Description:  "a place",
		City:         "Paris",
		Country:      "France",
		LocationText: "5th arrondissement",
	}
	want := 10.0 + 5 + 2 + 1 + 0.5 + 0.5 + 0.5
	if got := w.Score(&r); got != want {
		t.Errorf("want %f, got %f", want, got)
	}
}

func TestScore_ExternalRefDominates(t *testing.T) {
	w := Default()
	withRef := domain.Record{ExternalRef: "osm:1"}
	withEverythingElse := domain.Record{
		ImageURL: "https://img", MapURL: "https://map",
		Description: "d", City: "c", Country: "c", LocationText: "l",
	}
	if w.Score(&withRef) <= w.Score(&withEverythingElse) {
		t.Error("an external reference must outweigh all other fields combined")
	}
}

func TestScore_Monotonic(t *testing.T) {
	w := Default()
	r := domain.Record{Description: "d"}
	before := w.Score(&r)
	r.ImageURL = "https://img"
	if w.Score(&r) <= before {
		t.Error("filling a field must raise the score")
	}
}
