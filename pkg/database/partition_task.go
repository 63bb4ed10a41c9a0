package database

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"buildmart_dev_v1_202608/pkg/logger"
)

// PartitionTask 周期维护通知表分区：补未来分区、按保留期裁旧分区
type PartitionTask struct {
	manager      *PartitionManager
	futureMonths int
	interval     time.Duration
	stopCh       chan struct{}
	wg           sync.WaitGroup
	mu           sync.Mutex
	running      bool
}

// PartitionTaskOption 任务参数调整
type PartitionTaskOption func(*PartitionTask)

// WithFutureMonths 预建未来几个月的分区
func WithFutureMonths(months int) PartitionTaskOption {
	return func(t *PartitionTask) { t.futureMonths = months }
}

// WithInterval 两轮维护之间的间隔
func WithInterval(d time.Duration) PartitionTaskOption {
	return func(t *PartitionTask) { t.interval = d }
}

func NewPartitionTask(manager *PartitionManager, opts ...PartitionTaskOption) *PartitionTask {
	t := &PartitionTask{
		manager:      manager,
		futureMonths: 3,
		interval:     24 * time.Hour,
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start 拉起后台循环，重复调用只生效一次
func (t *PartitionTask) Start() {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.running = true
	t.mu.Unlock()

	t.wg.Add(1)
	go t.loop()

	logger.L().Info("分区维护任务已启动",
		zap.Duration("interval", t.interval),
		zap.Int("future_months", t.futureMonths))
}

// Stop 通知循环退出并等它收尾
func (t *PartitionTask) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	t.mu.Unlock()

	close(t.stopCh)
	t.wg.Wait()
	logger.L().Info("分区维护任务已停止")
}

// RunOnce 立刻跑一轮，排障时用
func (t *PartitionTask) RunOnce() {
	t.maintain()
}

func (t *PartitionTask) loop() {
	defer t.wg.Done()

	// 进程刚起时先补齐一次，不等首个 tick
	t.maintain()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.maintain()
		case <-t.stopCh:
			return
		}
	}
}

// maintain 单轮维护，各步骤失败只记日志不中断后续步骤
func (t *PartitionTask) maintain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()

	if err := t.manager.HealthCheck(ctx); err != nil {
		logger.L().Warn("分区健康检查异常", zap.Error(err))
	}

	if err := t.manager.EnsureFuturePartitions(ctx, t.futureMonths); err != nil {
		logger.L().Error("补建未来分区失败", zap.Error(err))
	}

	if dropped, err := t.manager.CleanupExpiredPartitions(ctx); err != nil {
		logger.L().Error("清理过期分区失败", zap.Error(err))
	} else if dropped > 0 {
		logger.L().Info("已裁掉过期分区", zap.Int("dropped", dropped))
	}

	t.logStats(ctx)
	logger.L().Info("分区维护执行完成", zap.Duration("elapsed", time.Since(start)))
}

func (t *PartitionTask) logStats(ctx context.Context) {
	stats, err := t.manager.GetAllStats(ctx)
	if err != nil {
		return
	}
	for _, s := range stats {
		logger.L().Info("分区统计",
			zap.String("table", s.TableName),
			zap.Int("partitions", s.PartitionCount),
			zap.Float64("size_mb", float64(s.TotalSizeBytes)/1024/1024))
	}
}
