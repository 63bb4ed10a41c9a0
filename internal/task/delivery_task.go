package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
	"buildmart_dev_v1_202608/internal/service"
	"buildmart_dev_v1_202608/pkg/logger"
)

// ==================== DeliveryReminderTask 配送提醒任务 ====================

// DeliveryReminderTask 对即将开始的配送时间窗向客户和供应商各发一次提醒
// reminder_sent_at 保证每张配送单只提醒一轮，改期会清掉该标记重新计数
type DeliveryReminderTask struct {
	deliveryRepo  repository.DeliveryRepository
	orderRepo     repository.OrderRepository
	customerRepo  repository.CustomerRepository
	supplierRepo  repository.SupplierRepository
	notifications *service.NotificationService

	cron     *cron.Cron
	spec     string
	leadTime time.Duration

	// 控制并发提醒的数量，避免瞬时打爆数据库连接池
	concurrencyLimit int
	sleepTime        time.Duration
}

// NewDeliveryReminderTask 创建配送提醒任务
func NewDeliveryReminderTask(
	deliveryRepo repository.DeliveryRepository,
	orderRepo repository.OrderRepository,
	customerRepo repository.CustomerRepository,
	supplierRepo repository.SupplierRepository,
	notifications *service.NotificationService,
	spec string,
) *DeliveryReminderTask {
	if spec == "" {
		spec = "0 */15 * * * *"
	}
	return &DeliveryReminderTask{
		deliveryRepo:     deliveryRepo,
		orderRepo:        orderRepo,
		customerRepo:     customerRepo,
		supplierRepo:     supplierRepo,
		notifications:    notifications,
		cron:             cron.New(cron.WithSeconds()),
		spec:             spec,
		leadTime:         24 * time.Hour,
		concurrencyLimit: 10,
		sleepTime:        50 * time.Millisecond,
	}
}

// SetLeadTime 设置提前量
func (t *DeliveryReminderTask) SetLeadTime(lead time.Duration) {
	if lead > 0 {
		t.leadTime = lead
	}
}

// SetConcurrency 设置并发参数
func (t *DeliveryReminderTask) SetConcurrency(limit int, sleep time.Duration) {
	t.concurrencyLimit = limit
	t.sleepTime = sleep
}

// Start 启动定时任务
func (t *DeliveryReminderTask) Start() {
	// 首次执行
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		t.remind(ctx)
	}()

	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		t.remind(ctx)
	})
	if err != nil {
		logger.L().Error("配送提醒任务启动失败", zap.Error(err))
		return
	}

	t.cron.Start()
	logger.L().Info("配送提醒任务已启动",
		zap.String("spec", t.spec),
		zap.Duration("lead_time", t.leadTime))
}

// Stop 停止任务
func (t *DeliveryReminderTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	logger.L().Info("配送提醒任务已停止")
}

// RemindNow 立即执行一轮
func (t *DeliveryReminderTask) RemindNow(ctx context.Context) {
	t.remind(ctx)
}

func (t *DeliveryReminderTask) remind(ctx context.Context) {
	now := time.Now()
	deliveries, err := t.deliveryRepo.FindUpcoming(ctx, now, t.leadTime)
	if err != nil {
		logger.L().Error("待提醒配送单查询失败", zap.Error(err))
		return
	}
	if len(deliveries) == 0 {
		return
	}

	logger.L().Info("开始发送配送提醒",
		zap.Int("count", len(deliveries)),
		zap.Int("concurrency", t.concurrencyLimit))

	sem := make(chan struct{}, t.concurrencyLimit)
	var wg sync.WaitGroup

	var (
		reminded int
		failed   int
		mu       sync.Mutex
	)

	for i := range deliveries {
		select {
		case <-ctx.Done():
			logger.L().Warn("配送提醒任务超时停止")
			wg.Wait()
			return
		default:
		}

		sem <- struct{}{}
		wg.Add(1)
		time.Sleep(t.sleepTime)

		delivery := deliveries[i]
		go func(d model.Delivery) {
			defer wg.Done()
			defer func() { <-sem }()

			err := t.remindOne(ctx, &d, now)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				logger.L().Error("配送提醒发送失败",
					zap.Int64("delivery_id", d.ID), zap.Error(err))
				return
			}
			reminded++
		}(delivery)
	}

	wg.Wait()
	logger.L().Info("配送提醒完成", zap.Int("reminded", reminded), zap.Int("failed", failed))
}

// remindOne 给配送单的客户与供应商各发一条提醒并记录已提醒
func (t *DeliveryReminderTask) remindOne(ctx context.Context, d *model.Delivery, at time.Time) error {
	order, err := t.orderRepo.GetByID(ctx, d.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		return fmt.Errorf("order %d missing for delivery %d", d.OrderID, d.ID)
	}

	window := "soon"
	if d.WindowStart != nil {
		window = d.WindowStart.Format("Jan 2 15:04")
	}
	data := datatypes.JSONMap{"delivery_id": d.ID, "order_id": d.OrderID}

	if customer, err := t.customerRepo.GetByID(ctx, order.CustomerID); err == nil && customer != nil {
		_ = t.notifications.Push(ctx, customer.UserID, model.NotifyDeliveryReminder,
			"Delivery reminder",
			fmt.Sprintf("Delivery for order %s arrives %s", order.OrderNo, window), data)
	}
	if supplier, err := t.supplierRepo.GetByID(ctx, d.SupplierID); err == nil && supplier != nil {
		_ = t.notifications.Push(ctx, supplier.UserID, model.NotifyDeliveryReminder,
			"Delivery reminder",
			fmt.Sprintf("Delivery for order %s starts %s", order.OrderNo, window), data)
	}

	// 推送失败不重试，与事件系统同一口径：丢了就丢了
	return t.deliveryRepo.MarkReminded(ctx, d.ID, at)
}
