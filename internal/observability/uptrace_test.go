package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/riskibarqy/skater-value/internal/config"
	"github.com/riskibarqy/skater-value/internal/platform/logging"
)

func TestInitUptrace_Disabled(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.Config
		reason string
	}{
		{
			name:   "flag off",
			cfg:    config.Config{UptraceEnabled: false, ServiceName: "skater-value", AppEnv: config.EnvDev},
			reason: "UPTRACE_ENABLED=false",
		},
		{
			name:   "empty dsn",
			cfg:    config.Config{UptraceEnabled: true, UptraceDSN: " ", ServiceName: "skater-value", AppEnv: config.EnvDev},
			reason: "UPTRACE_DSN empty",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			shutdown, err := InitUptrace(tc.cfg, logging.NewWithWriter(logging.FormatJSON, logging.LevelInfo, &buf))
			if err != nil {
				t.Fatalf("init uptrace: %v", err)
			}
			if err := shutdown(context.Background()); err != nil {
				t.Fatalf("shutdown uptrace: %v", err)
			}
			if !strings.Contains(buf.String(), tc.reason) {
				t.Fatalf("expected reason %q in log, got %q", tc.reason, buf.String())
			}
		})
	}
}
