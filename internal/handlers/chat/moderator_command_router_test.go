package handlers

import (
	"testing"
	"time"
)

func TestParseHumanDuration(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"30m", 30 * time.Minute, true},
		{"2h", 2 * time.Hour, true},
		{"1h30m", 90 * time.Minute, true},
		{"2d", 48 * time.Hour, true},
		{"1w", 7 * 24 * time.Hour, true},
		{"", 0, false},
		{"0m", 0, false},
		{"-1h", 0, false},
		{"0d", 0, false},
		{"xd", 0, false},
		{"soon", 0, false},
		{"10", 0, false},
	} {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, ok := parseHumanDuration(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("parseHumanDuration(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseCommandArguments(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name         string
		in           string
		wantDuration time.Duration
		wantReason   string
	}{
		{"empty", "", 0, ""},
		{"reason only", "spamming links", 0, "spamming links"},
		{"duration only", "2d", 48 * time.Hour, ""},
		{"duration then reason", "30m cool off", 30 * time.Minute, "cool off"},
		{"bad duration becomes reason", "later repeat offense", 0, "later repeat offense"},
		{"extra whitespace", "  1w   ban evasion  ", 7 * 24 * time.Hour, "ban evasion"},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			duration, reason := parseCommandArguments(tt.in)
			if duration != tt.wantDuration || reason != tt.wantReason {
				t.Fatalf("parseCommandArguments(%q) = (%v, %q), want (%v, %q)", tt.in, duration, reason, tt.wantDuration, tt.wantReason)
			}
		})
	}
}
