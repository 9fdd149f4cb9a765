package reference

import (
	"testing"
)

func TestDefaultTablePostalFormats(t *testing.T) {
	table := Default()
	cases := []struct {
		code  string
		value string
		want  bool
	}{
		{"DE", "12345", true},
		{"DE", "1234", false},
		{"us", "94105-1234", true},
		{"US", "9410", false},
		{"CA", "K1A 0B1", true},
		{"GB", "SW1A 1AA", true},
		{"PL", "00950", false},
	}
	for _, tc := range cases {
		country, ok := table.Lookup(tc.code)
		if !ok {
			t.Fatalf("country %s missing", tc.code)
		}
		if got := country.MatchesPostalCode(tc.value); got != tc.want {
			t.Fatalf("%s %q: want %v got %v", tc.code, tc.value, tc.want, got)
		}
	}
}

func TestLookupUnknownCountry(t *testing.T) {
	if _, ok := Default().Lookup("ZZ"); ok {
		t.Fatalf("ZZ should not be known")
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	if _, err := Parse([]byte("countries:\n  - code: XX\n    postal_regex: '('\n")); err == nil {
		t.Fatalf("expected regex compile error")
	}
	if _, err := Parse([]byte("countries:\n  - code: XX\n  - code: xx\n")); err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestAllSortedByName(t *testing.T) {
	all := Default().All()
	for i := 1; i < len(all); i++ {
		if all[i-1].Name > all[i].Name {
			t.Fatalf("countries not sorted: %s > %s", all[i-1].Name, all[i].Name)
		}
	}
}
