// Package selection 当前选中标签的有序集合。
//
// Selection 是值类型，所有操作返回新的 Selection，不修改入参。
package selection

import "strings"

// Separator 提示词分隔符，同时也是收藏夹 tags_string 的存储格式
const Separator = ", "

// Selection 按插入顺序排列、无重复的 name_en 序列
type Selection []string

// Toggle 已选中则移除，否则追加到末尾；空白名称忽略
func (s Selection) Toggle(name string) Selection {
	if strings.TrimSpace(name) == "" {
		return append(Selection{}, s...)
	}
	if s.Contains(name) {
		return s.Remove(name)
	}
	next := make(Selection, 0, len(s)+1)
	next = append(next, s...)
	return append(next, name)
}

// Remove 移除指定标签，不存在时原样返回
func (s Selection) Remove(name string) Selection {
	next := make(Selection, 0, len(s))
	for _, n := range s {
		if n != name {
			next = append(next, n)
		}
	}
	return next
}

// Clear 清空
func (s Selection) Clear() Selection {
	return Selection{}
}

// Contains 是否已选中
func (s Selection) Contains(name string) bool {
	for _, n := range s {
		if n == name {
			return true
		}
	}
	return false
}

// Len 选中数量
func (s Selection) Len() int {
	return len(s)
}

// ToPromptString 以 ", " 拼接
func (s Selection) ToPromptString() string {
	return strings.Join(s, Separator)
}

// Of 由名称列表构造 Selection，去掉空白项与重复项（保留首次出现）
func Of(names ...string) Selection {
	s := make(Selection, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" || seen[name] {
			continue
		}
		seen[name] = true
		s = append(s, name)
	}
	return s
}

// FromTagsString 按 ", " 拆分；标签名本身包含分隔符时无法还原
func FromTagsString(tagsString string) Selection {
	return Of(strings.Split(tagsString, Separator)...)
}

// Count tags_string 中的标签数量
func Count(tagsString string) int {
	return FromTagsString(tagsString).Len()
}
