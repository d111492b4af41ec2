package cleanup

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// mockSessionDeleter はSessionDeleterのモック実装。
type mockSessionDeleter struct {
	deleteExpiredFn func(ctx context.Context) (int64, error)
	callCount       atomic.Int64
}

func (m *mockSessionDeleter) DeleteExpired(ctx context.Context) (int64, error) {
	m.callCount.Add(1)
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx)
	}
	return 0, nil
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func TestJob_Run_DeletesExpiredSessions(t *testing.T) {
	var buf bytes.Buffer
	deleter := &mockSessionDeleter{
		deleteExpiredFn: func(ctx context.Context) (int64, error) {
			return 3, nil
		},
	}
	job := NewJob(deleter, newTestLogger(&buf), nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() がエラーを返した: %v", err)
	}

	if got := deleter.callCount.Load(); got != 1 {
		t.Errorf("DeleteExpired call count = %d, want 1", got)
	}
	if !strings.Contains(buf.String(), `"deleted_count":3`) {
		t.Errorf("ログに削除件数が含まれていない: %s", buf.String())
	}
}

func TestJob_Run_ReturnsErrorOnFailure(t *testing.T) {
	var buf bytes.Buffer
	deleter := &mockSessionDeleter{
		deleteExpiredFn: func(ctx context.Context) (int64, error) {
			return 0, errors.New("connection refused")
		},
	}
	job := NewJob(deleter, newTestLogger(&buf), nil)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("Run() はエラーを返すべき")
	}
}

// 対象ゼロ件でも正常終了すること（冪等）。
func TestJob_Run_NoExpiredSessions(t *testing.T) {
	var buf bytes.Buffer
	job := NewJob(&mockSessionDeleter{}, newTestLogger(&buf), nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() がエラーを返した: %v", err)
	}
}

func TestJob_Start_StopsOnContextCancel(t *testing.T) {
	var buf bytes.Buffer
	deleter := &mockSessionDeleter{}
	job := NewJob(deleter, newTestLogger(&buf), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx, time.Hour)
		close(done)
	}()

	// 起動直後の1回目の実行を待つ
	deadline := time.After(2 * time.Second)
	for deleter.callCount.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("起動直後の実行が行われなかった")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("コンテキストキャンセル後にStartが終了しなかった")
	}
}
