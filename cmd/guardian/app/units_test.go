package app

import (
	"strings"
	"testing"

	"github.com/autopeer-io/guardian/cmd/guardian/app/options"
	pkgoptions "github.com/autopeer-io/guardian/pkg/options"
)

func TestUnitsTable(t *testing.T) {
	opts := options.NewGuardianOptions()
	opts.FleetOptions.Units = []pkgoptions.UnitOptions{
		{ID: "GUARD-01", Lat: 28.71, Lon: 77.11, Alt: 100, Battery: 85, Status: "active"},
		{ID: "GUARD-02", Lat: 28.72, Lon: 77.12, Alt: 90, Battery: 18, Status: "active"},
		{ID: "GUARD-03", Lat: 28.73, Lon: 77.13, Alt: 80, Battery: 6},
		{ID: "GUARD-04", Lat: 28.7041, Lon: 77.1025, Battery: 40, Status: "landed"},
	}

	lines := strings.Split(unitsTable(opts).String(), "\n")
	if len(lines) != 5 {
		t.Fatalf("table has %d lines, want 5:\n%s", len(lines), strings.Join(lines, "\n"))
	}
	tests := []struct {
		line int
		want []string
	}{
		{1, []string{"GUARD-01", "active", "85.0%", "-"}},
		{2, []string{"GUARD-02", "return"}},
		{3, []string{"GUARD-03", "active", "emergency return"}},
		{4, []string{"GUARD-04", "landed", "0", "-"}},
	}
	for _, tt := range tests {
		for _, want := range tt.want {
			if !strings.Contains(lines[tt.line], want) {
				t.Errorf("line %d %q does not contain %q", tt.line, lines[tt.line], want)
			}
		}
	}
}
