package main

import (
	"testing"
	"time"

	"github.com/opd-ai/go-bouncyballs/pkg/config"
)

func TestTickInterval(t *testing.T) {
	tests := []struct {
		rate int
		want time.Duration
	}{
		{1, time.Second},
		{60, time.Second / 60},
		{config.MaxTickRate, time.Millisecond},
	}
	for _, tt := range tests {
		if got := tickInterval(tt.rate); got != tt.want || got <= 0 {
			t.Errorf("tickInterval(%d) = %v, want %v", tt.rate, got, tt.want)
		}
	}
}

func TestHeartbeatMaxAge(t *testing.T) {
	tests := []struct {
		name   string
		period time.Duration
		want   time.Duration
	}{
		{"one_hz_allows_three_ticks", time.Second, 3 * time.Second},
		{"slow_rate", 2 * time.Second, 6 * time.Second},
		{"fast_rate_floor", time.Second / 60, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := heartbeatMaxAge(tt.period); got != tt.want {
				t.Errorf("heartbeatMaxAge(%v) = %v, want %v", tt.period, got, tt.want)
			}
		})
	}
}
