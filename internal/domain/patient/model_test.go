package patient

import "testing"

func TestNameMatches(t *testing.T) {
	p := &Patient{FirstName: "John", LastName: "Doe"}

	cases := []struct {
		first, last string
		want        bool
	}{
		{"John", "Doe", true},
		{"john", "doe", true},
		{"  John ", " Doe ", true},
		{"JOHN", "DOE", true},
		{"Jane", "Doe", false},
		{"John", "Smith", false},
		{"", "", false},
	}
	for _, tc := range cases {
		if got := p.NameMatches(tc.first, tc.last); got != tc.want {
			t.Errorf("NameMatches(%q, %q) = %v, want %v", tc.first, tc.last, got, tc.want)
		}
	}
}

func TestFullName(t *testing.T) {
	p := &Patient{FirstName: "John", LastName: "Doe"}
	if p.FullName() != "John Doe" {
		t.Errorf("unexpected full name %q", p.FullName())
	}
}
