package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressFeedback(t *testing.T) {
	tests := []struct {
		name   string
		value  int
		target int
		want   string
	}{
		{"well over target", 15, 10, "Wow! Great job!"},
		{"exactly at target", 10, 10, "Goal achieved!"},
		{"just over target", 11, 10, "Goal achieved!"},
		{"three quarters", 8, 10, "Almost there!"},
		{"half way", 5, 10, "Keep going!"},
		{"barely started", 2, 10, "Just started!"},
		{"zero value", 0, 10, "Just started!"},
		{"zero target treated as one", 3, 0, "Wow! Great job!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProgressFeedback(tt.value, tt.target))
		})
	}
}
