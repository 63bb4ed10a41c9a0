package task

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"buildmart_dev_v1_202608/internal/repository"
	"buildmart_dev_v1_202608/pkg/logger"
)

// ==================== PromotionSweepTask 促销下线任务 ====================

// PromotionSweepTask 定时下线已过截止时间或名额用尽的促销码
// 下单事务里已有硬校验，这里只是把状态扫正，让列表页不再展示
type PromotionSweepTask struct {
	promoRepo repository.PromotionRepository
	cron      *cron.Cron
	spec      string
}

// NewPromotionSweepTask 创建促销下线任务
func NewPromotionSweepTask(promoRepo repository.PromotionRepository, spec string) *PromotionSweepTask {
	if spec == "" {
		spec = "0 */5 * * * *"
	}
	return &PromotionSweepTask{
		promoRepo: promoRepo,
		cron:      cron.New(cron.WithSeconds()),
		spec:      spec,
	}
}

// Start 启动定时任务
func (t *PromotionSweepTask) Start() {
	// 首次执行
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		t.sweep(ctx)
	}()

	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		t.sweep(ctx)
	})
	if err != nil {
		logger.L().Error("促销下线任务启动失败", zap.Error(err))
		return
	}

	t.cron.Start()
	logger.L().Info("促销下线任务已启动", zap.String("spec", t.spec))
}

// Stop 停止任务
func (t *PromotionSweepTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	logger.L().Info("促销下线任务已停止")
}

// SweepNow 立即执行一轮
func (t *PromotionSweepTask) SweepNow(ctx context.Context) {
	t.sweep(ctx)
}

func (t *PromotionSweepTask) sweep(ctx context.Context) {
	now := time.Now()

	expired, err := t.promoRepo.FindExpired(ctx, now)
	if err != nil {
		logger.L().Error("过期促销查询失败", zap.Error(err))
		return
	}
	exhausted, err := t.promoRepo.FindExhausted(ctx)
	if err != nil {
		logger.L().Error("超限促销查询失败", zap.Error(err))
		return
	}

	swept := 0
	for i := range expired {
		if err := t.promoRepo.MarkExpired(ctx, expired[i].ID); err != nil {
			logger.L().Error("促销下线失败",
				zap.Int64("promotion_id", expired[i].ID),
				zap.String("code", expired[i].Code),
				zap.Error(err))
			continue
		}
		swept++
	}
	for i := range exhausted {
		if err := t.promoRepo.MarkExpired(ctx, exhausted[i].ID); err != nil {
			logger.L().Error("促销下线失败",
				zap.Int64("promotion_id", exhausted[i].ID),
				zap.String("code", exhausted[i].Code),
				zap.Error(err))
			continue
		}
		swept++
	}

	if swept > 0 {
		logger.L().Info("促销下线完成",
			zap.Int("expired", len(expired)),
			zap.Int("exhausted", len(exhausted)),
			zap.Int("swept", swept))
	}
}
