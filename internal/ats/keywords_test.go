package ats

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtractKeywordsOrdersByFrequency(t *testing.T) {
	jd := "Go developer. Go services, redis caching, redis pubsub, kubernetes."
	got := ExtractKeywords(jd)

	want := []string{"redis", "caching", "developer", "kubernetes", "pubsub", "services"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractKeywords = %v, want %v", got, want)
	}
}

func TestExtractKeywordsKeepsTechSymbols(t *testing.T) {
	got := ExtractKeywords("Looking for C++ and C# engineers familiar with node.js")

	joined := strings.Join(got, " ")
	for _, kw := range []string{"c++", "c#", "node.js"} {
		if !strings.Contains(joined, kw) {
			t.Fatalf("expected %q in extracted keywords, got %v", kw, got)
		}
	}
}

func TestExtractKeywordsFiltersStopwords(t *testing.T) {
	got := ExtractKeywords("You will work with the team and have strong experience")
	if len(got) != 0 {
		t.Fatalf("expected only stopwords to be dropped, got %v", got)
	}
}

func TestExtractKeywordsEmptyInput(t *testing.T) {
	if got := ExtractKeywords("   "); len(got) != 0 {
		t.Fatalf("expected no keywords for blank input, got %v", got)
	}
}
