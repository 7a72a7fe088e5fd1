package state

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"epubx/config"
)

func TestContextWithEnv(t *testing.T) {
	ctx := ContextWithEnv(context.Background())
	env := EnvFromContext(ctx)
	if env == nil {
		t.Fatal("EnvFromContext() returned nil")
	}
	if env.start.IsZero() {
		t.Error("Environment start time not set")
	}
	if env.Flat || env.Overwrite || env.Publish || env.Chapters != nil {
		t.Error("conversion switches must be off by default")
	}
}

func TestEnvFromContext_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when env not in context")
		}
	}()
	EnvFromContext(context.Background())
}

func TestLocalEnv_Uptime(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))

	time.Sleep(10 * time.Millisecond)
	if uptime := env.Uptime(); uptime < 10*time.Millisecond {
		t.Errorf("Uptime() = %v, expected at least 10ms", uptime)
	}
}

func TestLocalEnv_StdLog(t *testing.T) {
	tests := []struct {
		name   string
		log    *zap.Logger
		wantFn bool
	}{
		{name: "with logger", log: zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))), wantFn: true},
		{name: "without logger", log: nil, wantFn: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &LocalEnv{Log: tt.log}
			for i := 0; i < 2; i++ {
				env.RedirectStdLog()
				if (env.restoreStdLog != nil) != tt.wantFn {
					t.Errorf("iteration %d: restoreStdLog set = %v, want %v", i, env.restoreStdLog != nil, tt.wantFn)
				}
				env.RestoreStdLog()
			}
		})
	}
}

func TestLocalEnv_Integration(t *testing.T) {
	ctx := ContextWithEnv(context.Background())
	env := EnvFromContext(ctx)

	env.Cfg = &config.Config{Version: 1}
	env.Log = zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	env.Chapters = []int{1, 3}
	env.Flat = true

	env.RedirectStdLog()
	defer env.RestoreStdLog()

	again := EnvFromContext(ctx)
	if again != env {
		t.Error("context must carry the same environment")
	}
	if len(again.Chapters) != 2 || !again.Flat {
		t.Error("Environment not properly initialized")
	}
}
