package match

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"City Hall", "city hall"},
		{"  Grand   Bazaar  ", "grand bazaar"},
		{"St.Mary's Cathedral", "st marys cathedral"},
		{"Café-Restaurant \"Zur Post\"", "café restaurant zur post"},
		{"won't", "wont"},
		{"", ""},
		{"!!!", ""},
		{"Tour Eiffel", "tour eiffel"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestBaseName_StripsSuffixes(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"City Hall (West Wing)", "city hall"},
		{"City Hall [annex]", "city hall"},
		{"City Hall - Main Entrance", "city hall"},
		{"City Hall – Main Entrance", "city hall"},
		{"City Hall", "city hall"},
		{"Ministry Building A", "ministry building"},
		{"Pier 3", "pier"},
		{"A", "a"},
		{"(anonymous)", ""},
	}
	for _, c := range cases {
		if got := BaseName(c.in); got != c.want {
			t.Errorf("BaseName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTokens_FiltersShortWords(t *testing.T) {
	set := tokens("museum of art")
	if _, ok := set["of"]; ok {
		t.Error("expected 'of' to be filtered")
	}
	if _, ok := set["museum"]; !ok {
		t.Error("expected 'museum' to be kept")
	}
	if _, ok := set["art"]; !ok {
		t.Error("expected 'art' to be kept")
	}
}
