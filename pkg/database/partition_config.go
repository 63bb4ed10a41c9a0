package database

import (
	"bufio"
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// PartitionTable 单张分区表的建表与保留策略
type PartitionTable struct {
	// Name 父表名，同名 .sql 文件存放建表语句
	Name string
	// RetentionMonths 历史分区保留月数，0 表示永久保留
	RetentionMonths int
	// DDL 分区父表建表语句
	DDL string
}

// PartitionConfig 分区表清单，来自 partition_tables.conf
type PartitionConfig struct {
	Tables []PartitionTable
}

// confFileName 清单文件名，每行 "表名,保留月数"
const confFileName = "partition_tables.conf"

// LoadPartitionConfig 从嵌入文件系统加载清单与建表 SQL
func LoadPartitionConfig(embedFS embed.FS, root string) (*PartitionConfig, error) {
	read := func(name string) ([]byte, error) {
		return embedFS.ReadFile(path.Join(root, name))
	}
	return loadPartitionConfig(read)
}

// LoadPartitionConfigFromDir 从磁盘目录加载，运维脚本手工执行时用
func LoadPartitionConfigFromDir(dir string) (*PartitionConfig, error) {
	read := func(name string) ([]byte, error) {
		return os.ReadFile(filepath.Join(dir, name))
	}
	return loadPartitionConfig(read)
}

func loadPartitionConfig(read func(name string) ([]byte, error)) (*PartitionConfig, error) {
	raw, err := read(confFileName)
	if err != nil {
		return nil, fmt.Errorf("读取分区清单失败: %w", err)
	}

	cfg := &PartitionConfig{}
	if err := cfg.parse(string(raw)); err != nil {
		return nil, err
	}

	for i := range cfg.Tables {
		ddl, err := read(cfg.Tables[i].Name + ".sql")
		if err != nil {
			return nil, fmt.Errorf("读取 %s 建表语句失败: %w", cfg.Tables[i].Name, err)
		}
		cfg.Tables[i].DDL = string(ddl)
	}
	return cfg, nil
}

// parse 逐行解析清单，# 开头为注释
func (c *PartitionConfig) parse(content string) error {
	scanner := bufio.NewScanner(strings.NewReader(content))
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, retention, ok := strings.Cut(line, ",")
		if !ok {
			return fmt.Errorf("分区清单第 %d 行缺少保留月数: %q", lineNum, line)
		}

		months, err := strconv.Atoi(strings.TrimSpace(retention))
		if err != nil || months < 0 {
			return fmt.Errorf("分区清单第 %d 行保留月数无效: %q", lineNum, retention)
		}

		c.Tables = append(c.Tables, PartitionTable{
			Name:            strings.TrimSpace(name),
			RetentionMonths: months,
		})
	}
	return scanner.Err()
}

// GetTableNames 清单中全部父表名
func (c *PartitionConfig) GetTableNames() []string {
	names := make([]string, len(c.Tables))
	for i, t := range c.Tables {
		names[i] = t.Name
	}
	return names
}

// GetTable 按名取表配置，不在清单返回 nil
func (c *PartitionConfig) GetTable(name string) *PartitionTable {
	for i := range c.Tables {
		if c.Tables[i].Name == name {
			return &c.Tables[i]
		}
	}
	return nil
}

// IsPartitionedTable 表是否走分区建表（这类表要跳过 AutoMigrate）
func (c *PartitionConfig) IsPartitionedTable(name string) bool {
	return c.GetTable(name) != nil
}
