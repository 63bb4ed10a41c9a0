package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"buildmart_dev_v1_202608/pkg/logger"
)

// PartitionManager 按月分区的建表、滚动与清理
// 通知这类只查近期的大表走这里，按月份挂子分区
type PartitionManager struct {
	db     *gorm.DB
	config *PartitionConfig
}

func NewPartitionManager(db *gorm.DB, config *PartitionConfig) *PartitionManager {
	return &PartitionManager{db: db, config: config}
}

// partitionName 子分区命名：notifications_y2026m08
func partitionName(table string, month time.Time) string {
	return fmt.Sprintf("%s_y%dm%02d", table, month.Year(), month.Month())
}

// monthStart 归一到月初（UTC），分区边界一律用它
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ==================== 建表 ====================

// InitPartitionTables 建分区父表，已存在的跳过
func (m *PartitionManager) InitPartitionTables(ctx context.Context) error {
	for _, table := range m.config.Tables {
		exists, err := m.relationExists(ctx, table.Name)
		if err != nil {
			return fmt.Errorf("检查表 %s 失败: %w", table.Name, err)
		}
		if exists {
			continue
		}

		logger.L().Info("创建分区父表", zap.String("table", table.Name))
		if err := m.db.WithContext(ctx).Exec(table.DDL).Error; err != nil {
			return fmt.Errorf("创建表 %s 失败: %w", table.Name, err)
		}
	}
	return nil
}

// relationExists 父表和子分区都在 pg_tables 里，共用一个探测
func (m *PartitionManager) relationExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := m.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM pg_tables WHERE schemaname = 'public' AND tablename = ?`,
		name).Scan(&count).Error
	return count > 0, err
}

// ==================== 滚动建分区 ====================

// EnsureFuturePartitions 把当月起未来 N 个月的分区补齐
// 单个分区建失败只记日志，剩下的继续建
func (m *PartitionManager) EnsureFuturePartitions(ctx context.Context, monthsAhead int) error {
	now := time.Now()
	for i := 0; i <= monthsAhead; i++ {
		month := monthStart(now.AddDate(0, i, 0))
		for _, table := range m.config.Tables {
			if err := m.ensureMonthPartition(ctx, table.Name, month); err != nil {
				logger.L().Error("创建分区失败",
					zap.String("table", table.Name),
					zap.Time("month", month),
					zap.Error(err))
			}
		}
	}
	return nil
}

func (m *PartitionManager) ensureMonthPartition(ctx context.Context, table string, month time.Time) error {
	name := partitionName(table, month)

	exists, err := m.relationExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	ddl := fmt.Sprintf(
		`CREATE TABLE %s PARTITION OF %s FOR VALUES FROM ('%s') TO ('%s')`,
		name, table,
		month.Format("2006-01-02"),
		month.AddDate(0, 1, 0).Format("2006-01-02"),
	)
	if err := m.db.WithContext(ctx).Exec(ddl).Error; err != nil {
		// 多实例同时补分区会撞车，后到的直接认成功
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return fmt.Errorf("创建分区 %s 失败: %w", name, err)
	}

	logger.L().Info("创建分区", zap.String("partition", name))
	return nil
}

// ==================== 过期清理 ====================

// CleanupExpiredPartitions 按保留月数滚动删除历史分区，返回删除数
func (m *PartitionManager) CleanupExpiredPartitions(ctx context.Context) (int, error) {
	dropped := 0
	for _, table := range m.config.Tables {
		if table.RetentionMonths == 0 {
			continue // 永久保留
		}

		cutoff := monthStart(time.Now().AddDate(0, -table.RetentionMonths, 0))
		count, err := m.dropPartitionsBefore(ctx, table.Name, cutoff)
		if err != nil {
			logger.L().Error("清理过期分区失败",
				zap.String("table", table.Name), zap.Error(err))
		}
		dropped += count
	}
	return dropped, nil
}

func (m *PartitionManager) dropPartitionsBefore(ctx context.Context, table string, cutoff time.Time) (int, error) {
	partitions, err := m.ListPartitions(ctx, table)
	if err != nil {
		return 0, err
	}

	dropped := 0
	for _, p := range partitions {
		month, err := partitionMonth(p.Name, table)
		if err != nil {
			// 名字不符合滚动命名的分区不碰
			continue
		}
		if !month.Before(cutoff) {
			continue
		}

		logger.L().Info("删除过期分区", zap.String("partition", p.Name))
		if err := m.db.WithContext(ctx).Exec(
			fmt.Sprintf("DROP TABLE IF EXISTS %s", p.Name)).Error; err != nil {
			logger.L().Error("删除分区失败",
				zap.String("partition", p.Name), zap.Error(err))
			continue
		}
		dropped++
	}
	return dropped, nil
}

// partitionMonth 从分区名解出所属月份
func partitionMonth(partition, table string) (time.Time, error) {
	suffix := strings.TrimPrefix(partition, table+"_y")
	if suffix == partition || len(suffix) < 6 {
		return time.Time{}, fmt.Errorf("分区名 %s 不符合滚动命名", partition)
	}
	var year, month int
	if _, err := fmt.Sscanf(suffix, "%dm%d", &year, &month); err != nil {
		return time.Time{}, err
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}

// ==================== 查询与巡检 ====================

// PartitionInfo 单个子分区概况
type PartitionInfo struct {
	Name      string `gorm:"column:partition_name"`
	Range     string `gorm:"column:partition_range"`
	SizeBytes int64  `gorm:"column:size_bytes"`
}

// ListPartitions 列出父表下的全部子分区
func (m *PartitionManager) ListPartitions(ctx context.Context, table string) ([]PartitionInfo, error) {
	var partitions []PartitionInfo
	err := m.db.WithContext(ctx).Raw(`
		SELECT
			child.relname AS partition_name,
			pg_get_expr(child.relpartbound, child.oid) AS partition_range,
			pg_total_relation_size(child.oid) AS size_bytes
		FROM pg_inherits
		JOIN pg_class parent ON pg_inherits.inhparent = parent.oid
		JOIN pg_class child ON pg_inherits.inhrelid = child.oid
		WHERE parent.relname = ?
		ORDER BY child.relname
	`, table).Scan(&partitions).Error
	return partitions, err
}

// TableStats 分区表体量统计，巡检日志用
type TableStats struct {
	TableName      string `gorm:"column:table_name"`
	PartitionCount int    `gorm:"column:partition_count"`
	TotalSizeBytes int64  `gorm:"column:total_size_bytes"`
}

// GetAllStats 清单内全部父表的分区数与磁盘占用
func (m *PartitionManager) GetAllStats(ctx context.Context) ([]TableStats, error) {
	names := m.config.GetTableNames()
	if len(names) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(names))
	args := make([]interface{}, len(names))
	for i, name := range names {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = name
	}

	var stats []TableStats
	query := fmt.Sprintf(`
		SELECT
			parent.relname AS table_name,
			COUNT(child.relname) AS partition_count,
			COALESCE(SUM(pg_total_relation_size(child.oid)), 0) AS total_size_bytes
		FROM pg_inherits
		JOIN pg_class parent ON pg_inherits.inhparent = parent.oid
		JOIN pg_class child ON pg_inherits.inhrelid = child.oid
		WHERE parent.relname IN (%s)
		GROUP BY parent.relname
		ORDER BY parent.relname
	`, strings.Join(placeholders, ","))

	err := m.db.WithContext(ctx).Raw(query, args...).Scan(&stats).Error
	return stats, err
}

// HealthCheck 当月与下月分区必须齐备，缺了返回错误交给维护任务补
func (m *PartitionManager) HealthCheck(ctx context.Context) error {
	current := monthStart(time.Now())
	next := current.AddDate(0, 1, 0)

	var missing []string
	for _, table := range m.config.Tables {
		for _, month := range []time.Time{current, next} {
			name := partitionName(table.Name, month)
			if exists, _ := m.relationExists(ctx, name); !exists {
				missing = append(missing, name)
			}
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("缺失分区: %v", missing)
	}
	return nil
}
