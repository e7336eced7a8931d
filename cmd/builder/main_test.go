package main

import "testing"

func TestTableDelimiter(t *testing.T) {
	cases := []struct {
		configured string
		want       rune
	}{
		{"", ';'},
		{";", ';'},
		{",", ','},
		{"\t", '\t'},
		{";;", ';'},
	}
	for _, c := range cases {
		if got := tableDelimiter(c.configured); got != c.want {
			t.Errorf("tableDelimiter(%q) = %q, want %q", c.configured, got, c.want)
		}
	}
}
