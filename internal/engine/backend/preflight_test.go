package backend

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCheckEngine_NonPingableBackendPasses(t *testing.T) {
	if err := CheckEngine(context.Background(), &MockBackend{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheckEngine_PingErrorBecomesPreflightError(t *testing.T) {
	dead := &pingableMock{pingErr: errors.New("connection refused")}

	err := CheckEngine(context.Background(), dead)
	var pf *PreflightError
	if !errors.As(err, &pf) {
		t.Fatalf("expected PreflightError, got %v", err)
	}
	if !strings.Contains(pf.Hint, "not running") {
		t.Errorf("expected not-running hint, got %q", pf.Hint)
	}
}

func TestClassifyEngineError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"permission", errors.New("permission denied while trying to connect"), "permission denied"},
		{"refused", errors.New("dial unix: connection refused"), "not running"},
		{"other", errors.New("something odd"), "not reachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf := classifyEngineError(tt.err)
			if !strings.Contains(pf.Hint, tt.want) {
				t.Errorf("hint = %q, want substring %q", pf.Hint, tt.want)
			}
			if !errors.Is(pf, tt.err) {
				t.Error("expected cause to be wrapped")
			}
		})
	}
}
