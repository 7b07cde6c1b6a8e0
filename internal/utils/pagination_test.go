package utils

import "testing"

func TestIntOr(t *testing.T) {
	cases := []struct {
		name string
		s    string
		def  int
		want int
	}{
		{"empty uses default", "", 10, 10},
		{"plain int", "42", 0, 42},
		{"negative", "-13", 1, -13},
		{"leading zeros", "0012", 99, 12},
		{"garbage uses default", "x", 5, 5},
		{"no trimming", " 42", 7, 7},
		{"overflow uses default", "999999999999999999999999", -1, -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IntOr(tc.s, tc.def); got != tc.want {
				t.Fatalf("IntOr(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
			}
		})
	}
}
