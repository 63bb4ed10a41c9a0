package database

import (
	"context"
	"embed"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"buildmart_dev_v1_202608/pkg/logger"
)

// Initializer 建库入口：分区表走 DDL 清单，普通表走 AutoMigrate
type Initializer struct {
	db           *gorm.DB
	config       *PartitionConfig
	manager      *PartitionManager
	plainModels  []interface{}
	futureMonths int
}

// InitOptions 初始化参数
type InitOptions struct {
	// 分区 DDL 来源：发布版走嵌入文件系统
	EmbedFS   *embed.FS
	EmbedRoot string

	// 调试时也可以指到磁盘目录
	SQLDir string

	// 走 AutoMigrate 的普通模型
	NonPartitionedModels []interface{}

	// 预建未来几个月的分区，0 取默认 3
	FutureMonths int
}

func NewInitializer(db *gorm.DB, opts InitOptions) (*Initializer, error) {
	var config *PartitionConfig
	var err error
	switch {
	case opts.EmbedFS != nil:
		config, err = LoadPartitionConfig(*opts.EmbedFS, opts.EmbedRoot)
	case opts.SQLDir != "":
		config, err = LoadPartitionConfigFromDir(opts.SQLDir)
	default:
		return nil, fmt.Errorf("必须指定 EmbedFS 或 SQLDir")
	}
	if err != nil {
		return nil, fmt.Errorf("加载分区清单失败: %w", err)
	}

	if opts.FutureMonths == 0 {
		opts.FutureMonths = 3
	}

	return &Initializer{
		db:           db,
		config:       config,
		manager:      NewPartitionManager(db, config),
		plainModels:  opts.NonPartitionedModels,
		futureMonths: opts.FutureMonths,
	}, nil
}

// Initialize 建父表、补分区，再把普通表 AutoMigrate 一遍
func (i *Initializer) Initialize(ctx context.Context) error {
	start := time.Now()

	if err := i.manager.InitPartitionTables(ctx); err != nil {
		return fmt.Errorf("创建分区表失败: %w", err)
	}
	if err := i.manager.EnsureFuturePartitions(ctx, i.futureMonths); err != nil {
		return fmt.Errorf("补建分区失败: %w", err)
	}

	if len(i.plainModels) > 0 {
		if err := i.db.WithContext(ctx).AutoMigrate(i.plainModels...); err != nil {
			return fmt.Errorf("AutoMigrate 失败: %w", err)
		}
	}

	i.logPartitionStats(ctx)
	logger.L().Info("数据库初始化完成",
		zap.Int("tables", len(i.plainModels)+len(i.config.Tables)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (i *Initializer) logPartitionStats(ctx context.Context) {
	stats, err := i.manager.GetAllStats(ctx)
	if err != nil {
		return
	}
	for _, s := range stats {
		logger.L().Info("分区表概况",
			zap.String("table", s.TableName),
			zap.Int("partitions", s.PartitionCount),
			zap.Float64("size_mb", float64(s.TotalSizeBytes)/1024/1024))
	}
}

// GetManager 分区管理器，维护任务复用
func (i *Initializer) GetManager() *PartitionManager {
	return i.manager
}

// GetConfig 分区清单
func (i *Initializer) GetConfig() *PartitionConfig {
	return i.config
}

// IsPartitionedTable 表是否由分区清单接管建表
func (i *Initializer) IsPartitionedTable(name string) bool {
	return i.config.IsPartitionedTable(name)
}

// ==================== 全局实例 ====================

var globalInit *Initializer

func SetGlobal(init *Initializer) {
	globalInit = init
}

func Global() *Initializer {
	return globalInit
}

// QuickInit 默认参数一把梭：嵌入 DDL + 3 个月预建，并登记为全局实例
func QuickInit(db *gorm.DB, models []interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	init, err := NewInitializer(db, InitOptions{
		EmbedFS:              &PartitionSQL,
		EmbedRoot:            "partitions",
		NonPartitionedModels: models,
	})
	if err != nil {
		return err
	}

	SetGlobal(init)
	return init.Initialize(ctx)
}
