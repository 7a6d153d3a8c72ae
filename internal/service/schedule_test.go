package service

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizePublishDays(t *testing.T) {
	tests := []struct {
		name    string
		in      []int
		want    []int
		wantErr bool
	}{
		{"sorted and deduplicated", []int{4, 1, 4, 1}, []int{1, 4}, false},
		{"single day", []int{6}, []int{6}, false},
		{"empty", nil, nil, true},
		{"negative day", []int{-1}, nil, true},
		{"day out of range", []int{7}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizePublishDays(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("days mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
