package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	pkgcron "github.com/clubworks/core/internal/pkg/cron"
	"github.com/clubworks/core/internal/pkg/session"
)

// registerCronJobs registers all scheduled background jobs.
func (a *App) registerCronJobs() {
	cronLogger := a.logger.Named("CronService")

	a.sched.Register(pkgcron.Job{
		Name:        "flush_read_counts",
		Description: "把 Redis 里缓冲的阅读数写回数据库",
		Interval:    5 * time.Minute,
		Fn: func(ctx context.Context) error {
			if err := a.postSvc.FlushReadCounts(ctx); err != nil {
				cronLogger.Warn("阅读数回写失败", zap.Error(err))
				return err
			}
			return nil
		},
	})

	a.sched.Register(pkgcron.Job{
		Name:        "purge_expired_sessions",
		Description: "清理过期 7 天以上的登录会话",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			n, err := session.PurgeExpired(a.db.WithContext(ctx), 7*24*time.Hour)
			if err != nil {
				cronLogger.Warn("清理会话失败", zap.Error(err))
				return err
			}
			if n > 0 {
				cronLogger.Info(fmt.Sprintf("清理会话成功，共删除 %d 条", n))
			}
			return nil
		},
	})
}
