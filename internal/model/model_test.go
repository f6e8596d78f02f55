package model

import (
	"reflect"
	"testing"
)

func TestIsValidArticleStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"draft", true},
		{"published", true},
		{"archived", true},
		{"deleted", false},
		{"", false},
		{"Published", false},
	}

	for _, tt := range tests {
		if got := IsValidArticleStatus(tt.status); got != tt.want {
			t.Errorf("IsValidArticleStatus(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestStringListRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		raw   string
	}{
		{"empty", []string{}, "[]"},
		{"nil", nil, "[]"},
		{"single", []string{"golang"}, `["golang"]`},
		{"multiple", []string{"go", "web dev", "sqlite"}, `["go","web dev","sqlite"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeStringList(tt.items); got != tt.raw {
				t.Errorf("EncodeStringList() = %q, want %q", got, tt.raw)
			}
			want := tt.items
			if want == nil {
				want = []string{}
			}
			if got := DecodeStringList(tt.raw); !reflect.DeepEqual(got, want) {
				t.Errorf("DecodeStringList(%q) = %v, want %v", tt.raw, got, want)
			}
		})
	}
}

func TestDecodeStringListInvalid(t *testing.T) {
	if got := DecodeStringList("{not json"); len(got) != 0 {
		t.Errorf("DecodeStringList(invalid) = %v, want empty", got)
	}
	if got := DecodeStringList(""); len(got) != 0 {
		t.Errorf("DecodeStringList(empty) = %v, want empty", got)
	}
}
