package enrich

import (
	"io"
	"log/slog"
	"reflect"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Hello, World!", []string{"hello", "world"}},
		{"v2.0-rc1 shipped", []string{"v2", "0", "rc1", "shipped"}},
		{"", nil},
		{"   \t\n", nil},
	}
	for _, tc := range tests {
		got := tokenize(tc.in)
		if len(got) == 0 && len(tc.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("tokenize(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTokenizeKeepsStopWords(t *testing.T) {
	got := tokenize("the quick fox")
	if len(got) != 3 || got[0] != "the" {
		t.Errorf("tokenize removed stop words: %v", got)
	}
	if !isStopWord("the") || isStopWord("fox") {
		t.Error("isStopWord misclassified")
	}
}
