package database

import "embed"

// PartitionSQL 分区清单与建表语句，随二进制一起发布
//
//go:embed partitions/*.sql partitions/*.conf
var PartitionSQL embed.FS
