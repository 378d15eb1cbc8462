package tag

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultRank 未在表中列出的分类使用的排名
const DefaultRank = 50

// PriorityTable 分类排序表，排名越小越靠前；同名次按中文排序规则比较
type PriorityTable struct {
	DefaultRank int            `yaml:"default_rank"`
	Ranks       map[string]int `yaml:"ranks"`
}

// DefaultPriorityTable 内置排序表
func DefaultPriorityTable() PriorityTable {
	return PriorityTable{
		DefaultRank: DefaultRank,
		Ranks: map[string]int{
			CategoryCustom: 999,
			"作品角色":         1, // 角色
			"角色":           1,
			"风格":           2,
			"构图":           3, // 构图/视角
			"衣装":           4,
			"下身装饰":         5,
			"物品":           6,
			"背景":           7,
			"R-18":         99,
			"限制级":          99,
		},
	}
}

// Rank 返回分类的排名
func (p PriorityTable) Rank(category string) int {
	if rank, ok := p.Ranks[category]; ok {
		return rank
	}
	if p.DefaultRank == 0 {
		return DefaultRank
	}
	return p.DefaultRank
}

// LoadPriorityTable 读取 YAML 排序表并覆盖到内置表之上；path 为空时直接返回内置表
func LoadPriorityTable(path string) (PriorityTable, error) {
	table := DefaultPriorityTable()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return table, fmt.Errorf("读取分类排序文件失败: %w", err)
	}

	var override PriorityTable
	if err := yaml.Unmarshal(data, &override); err != nil {
		return table, fmt.Errorf("解析分类排序文件失败: %w", err)
	}

	if override.DefaultRank > 0 {
		table.DefaultRank = override.DefaultRank
	}
	for category, rank := range override.Ranks {
		table.Ranks[category] = rank
	}
	return table, nil
}
