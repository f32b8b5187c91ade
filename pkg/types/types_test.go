package types_test

import (
	"testing"

	"github.com/shepherdjerred/conductor/pkg/types"
)

func TestStepResultConstructors(t *testing.T) {
	tests := []struct {
		name        string
		result      types.StepResult
		wantStatus  types.StepStatus
		wantMessage string
		wantPayload string
	}{
		{
			name:        "passed",
			result:      types.Passed("regex tests"),
			wantStatus:  types.StepPassed,
			wantMessage: "regex tests",
		},
		{
			name:        "passed with payload",
			result:      types.PassedWithPayload("chart publish", "oci://registry/chart:1.2.3"),
			wantStatus:  types.StepPassed,
			wantMessage: "chart publish",
			wantPayload: "oci://registry/chart:1.2.3",
		},
		{
			name:        "failed",
			result:      types.Failed("manifest lint"),
			wantStatus:  types.StepFailed,
			wantMessage: "manifest lint",
		},
		{
			name:        "skipped",
			result:      types.Skipped("chart packaging (version-only)"),
			wantStatus:  types.StepSkipped,
			wantMessage: "chart packaging (version-only)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.Status != tt.wantStatus {
				t.Errorf("expected status %s, got %s", tt.wantStatus, tt.result.Status)
			}
			if tt.result.Message != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, tt.result.Message)
			}
			if tt.result.Payload != tt.wantPayload {
				t.Errorf("expected payload %q, got %q", tt.wantPayload, tt.result.Payload)
			}
		})
	}
}

func TestStepResultString(t *testing.T) {
	r := types.Failed("terraform plan")
	if got := r.String(); got != "failed: terraform plan" {
		t.Errorf("unexpected report line: %q", got)
	}
}

func TestAppVersionsRecord(t *testing.T) {
	versions := types.AppVersions{}

	versions.Record("ghcr.io/shepherdjerred/birmel", "1.4.0")
	versions.Record("", "1.4.0") // tasks without a version key record nothing

	if len(versions) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(versions))
	}
	if versions["ghcr.io/shepherdjerred/birmel"] != "1.4.0" {
		t.Errorf("unexpected version: %q", versions["ghcr.io/shepherdjerred/birmel"])
	}
}
