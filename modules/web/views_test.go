package web

import (
	"testing"
	"time"
)

func TestSince(t *testing.T) {
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{time.Minute + time.Second, "1 minute ago"},
		{5*time.Minute + time.Second, "5 minutes ago"},
		{3*time.Hour + time.Second, "3 hours ago"},
		{49 * time.Hour, "2 days ago"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := since(time.Now().Add(-tt.ago)); got != tt.want {
				t.Errorf("since(-%v) = %q, want %q", tt.ago, got, tt.want)
			}
		})
	}
}

func TestNewViews_LoadsTemplates(t *testing.T) {
	engine, err := newViews()
	if err != nil {
		t.Fatalf("newViews() error = %v", err)
	}
	if err := engine.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}
