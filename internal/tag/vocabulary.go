package tag

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultDisplayLimit 浏览时每次展示的标签数量
const DefaultDisplayLimit = 100

// Vocabulary 合并后的词表：系统标签在前，自定义标签在后，分类按优先级排序
type Vocabulary struct {
	Tags       []Tag    `json:"tags"`
	Categories []string `json:"categories"`
}

// Merge 合并系统标签与自定义标签。
// 同名标签不去重，选择时以 NameEN 为键，Lookup 返回第一个匹配项。
func Merge(catalog, custom []Tag, priority PriorityTable) *Vocabulary {
	tags := make([]Tag, 0, len(catalog)+len(custom))
	tags = append(tags, catalog...)
	for _, t := range custom {
		t.IsCustom = true
		if t.Category == "" {
			t.Category = CategoryCustom
		}
		tags = append(tags, t)
	}

	return &Vocabulary{
		Tags:       tags,
		Categories: SortCategories(distinctCategories(tags), priority),
	}
}

func distinctCategories(tags []Tag) []string {
	seen := make(map[string]struct{})
	var categories []string
	for _, t := range tags {
		if _, ok := seen[t.Category]; ok {
			continue
		}
		seen[t.Category] = struct{}{}
		categories = append(categories, t.Category)
	}
	return categories
}

// SortCategories 按 (排名, 中文排序规则) 排序，返回新切片
func SortCategories(categories []string, priority PriorityTable) []string {
	sorted := append([]string(nil), categories...)
	collator := collate.New(language.Chinese)

	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := priority.Rank(sorted[i]), priority.Rank(sorted[j])
		if ri != rj {
			return ri < rj
		}
		return collator.CompareString(sorted[i], sorted[j]) < 0
	})
	return sorted
}

// Lookup 按 NameEN 查找第一个匹配的标签
func (v *Vocabulary) Lookup(nameEN string) (Tag, bool) {
	for _, t := range v.Tags {
		if t.NameEN == nameEN {
			return t, true
		}
	}
	return Tag{}, false
}

// Query 浏览过滤条件
type Query struct {
	Category string // 为空或 All 表示全部分类
	Search   string
	Offset   int
	Limit    int // <=0 时使用 DefaultDisplayLimit
}

// Page 过滤后的一页结果
type Page struct {
	Tags    []Tag
	Total   int
	HasMore bool
}

// Filter 按分类与关键字过滤：name_en 忽略大小写包含，或 name_zh 包含
func (v *Vocabulary) Filter(q Query) Page {
	search := strings.ToLower(q.Search)

	var matched []Tag
	for _, t := range v.Tags {
		if q.Category != "" && q.Category != CategoryAll && t.Category != q.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.NameEN), search) &&
			!(t.NameZH != "" && strings.Contains(t.NameZH, q.Search)) {
			continue
		}
		matched = append(matched, t)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultDisplayLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	return Page{
		Tags:    matched[offset:end],
		Total:   len(matched),
		HasMore: end < len(matched),
	}
}
