package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		name      string
		reference string
		wantRepo  string
		wantTag   string
	}{
		{
			name:      "versioned chart",
			reference: "ghcr.io/shepherdjerred/homelab-chart:1.2.3",
			wantRepo:  "ghcr.io/shepherdjerred/homelab-chart",
			wantTag:   "1.2.3",
		},
		{
			name:      "latest tag",
			reference: "ghcr.io/shepherdjerred/homelab-chart:latest",
			wantRepo:  "ghcr.io/shepherdjerred/homelab-chart",
			wantTag:   "latest",
		},
		{
			name:      "no tag defaults to latest",
			reference: "ghcr.io/shepherdjerred/homelab-chart",
			wantRepo:  "ghcr.io/shepherdjerred/homelab-chart",
			wantTag:   "latest",
		},
		{
			name:      "registry with port",
			reference: "localhost:5000/charts/homelab:2.0.0",
			wantRepo:  "localhost:5000/charts/homelab",
			wantTag:   "2.0.0",
		},
		{
			name:      "registry with port and no tag",
			reference: "localhost:5000/charts/homelab",
			wantRepo:  "localhost:5000/charts/homelab",
			wantTag:   "latest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, tag := ParseReference(tt.reference)
			assert.Equal(t, tt.wantRepo, repo)
			assert.Equal(t, tt.wantTag, tag)
		})
	}
}
