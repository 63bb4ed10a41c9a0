package task

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"buildmart_dev_v1_202608/internal/repository"
	"buildmart_dev_v1_202608/pkg/logger"
)

// ==================== SurplusExpiryTask 尾货过期任务 ====================

// SurplusExpiryTask 定时下架过了有效期仍在售的尾货单
// 结算路径上 CanPurchase 已按 expires_at 拦截，这里负责收尾状态
type SurplusExpiryTask struct {
	surplusRepo repository.SurplusRepository
	cron        *cron.Cron
	spec        string
}

// NewSurplusExpiryTask 创建尾货过期任务
func NewSurplusExpiryTask(surplusRepo repository.SurplusRepository, spec string) *SurplusExpiryTask {
	if spec == "" {
		spec = "0 */10 * * * *"
	}
	return &SurplusExpiryTask{
		surplusRepo: surplusRepo,
		cron:        cron.New(cron.WithSeconds()),
		spec:        spec,
	}
}

// Start 启动定时任务
func (t *SurplusExpiryTask) Start() {
	// 首次执行
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		t.expire(ctx)
	}()

	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		t.expire(ctx)
	})
	if err != nil {
		logger.L().Error("尾货过期任务启动失败", zap.Error(err))
		return
	}

	t.cron.Start()
	logger.L().Info("尾货过期任务已启动", zap.String("spec", t.spec))
}

// Stop 停止任务
func (t *SurplusExpiryTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	logger.L().Info("尾货过期任务已停止")
}

// ExpireNow 立即执行一轮
func (t *SurplusExpiryTask) ExpireNow(ctx context.Context) {
	t.expire(ctx)
}

func (t *SurplusExpiryTask) expire(ctx context.Context) {
	listings, err := t.surplusRepo.FindExpired(ctx, time.Now())
	if err != nil {
		logger.L().Error("过期尾货查询失败", zap.Error(err))
		return
	}
	if len(listings) == 0 {
		return
	}

	expired := 0
	for i := range listings {
		if err := t.surplusRepo.MarkExpired(ctx, listings[i].ID); err != nil {
			logger.L().Error("尾货下架失败",
				zap.Int64("listing_id", listings[i].ID),
				zap.String("title", listings[i].Title),
				zap.Error(err))
			continue
		}
		expired++
	}

	logger.L().Info("尾货过期处理完成", zap.Int("expired", expired), zap.Int("found", len(listings)))
}
