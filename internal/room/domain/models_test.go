package domain

import "testing"

func TestCapacityFor(t *testing.T) {
	cases := map[string]int{
		"":                     1,
		"Single room":          1,
		"DOUBLE room":          2,
		"spacious double-bed":  2,
		"Doubtful description": 1,
	}
	for description, want := range cases {
		if got := CapacityFor(description); got != want {
			t.Fatalf("CapacityFor(%q) = %d, want %d", description, got, want)
		}
	}
}
