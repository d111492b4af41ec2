// Package cleanup は期限切れセッションの自動削除ジョブを提供する。
// リフレッシュトークンの有効期限を過ぎたセッション行を定期バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SelahattinSert/listigo-demo/internal/metrics"
)

// SessionDeleter は期限切れセッションの削除を抽象化するインターフェース。
type SessionDeleter interface {
	// DeleteExpired は有効期限を過ぎたセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// Job は期限切れセッションの自動削除ジョブ。
// 削除は冪等であり、対象がない場合もエラーにならない。
type Job struct {
	sessions  SessionDeleter
	logger    *slog.Logger
	collector metrics.MetricsCollector // nil可
}

// NewJob は新しいJobを生成する。collectorはnilでもよい。
func NewJob(sessions SessionDeleter, logger *slog.Logger, collector metrics.MetricsCollector) *Job {
	return &Job{
		sessions:  sessions,
		logger:    logger,
		collector: collector,
	}
}

// Run は期限切れセッションを1回削除する。
func (j *Job) Run(ctx context.Context) error {
	start := time.Now()

	deleted, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	if j.collector != nil {
		j.collector.RecordSessionsCleaned(deleted)
	}

	duration := time.Since(start)
	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// Start は指定間隔のティッカーでジョブを起動する。
// 起動直後に1回実行し、コンテキストがキャンセルされるまで実行を継続する。
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("セッションクリーンアップジョブを開始しました",
		slog.Duration("interval", interval),
	)

	if err := j.Run(ctx); err != nil {
		j.logger.Error("セッションクリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("セッションクリーンアップジョブを停止しました")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("セッションクリーンアップの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
