package tag

// 固定分类名
const (
	// CategoryCustom 自定义标签的默认分类，排序永远靠后
	CategoryCustom = "Custom"
	// CategoryAll 浏览时表示不按分类过滤
	CategoryAll = "All"
)

// Tag 词表中的一个标签；NameEN 是选择与比较时使用的键
type Tag struct {
	ID         int64  `json:"id"`
	NameEN     string `json:"name_en"`
	NameZH     string `json:"name_zh"`
	Category   string `json:"category"`
	IsNegative bool   `json:"is_negative"`
	ImageURL   string `json:"image_url,omitempty"`
	WikiURL    string `json:"wiki_url,omitempty"`
	IsCustom   bool   `json:"is_custom,omitempty"`
}

// TagResponse API 响应
type TagResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Error      string      `json:"error,omitempty"`
	Tag        interface{} `json:"tag,omitempty"`
	Tags       interface{} `json:"tags,omitempty"`
	Categories []string    `json:"categories,omitempty"`
	Total      int         `json:"total,omitempty"`
	HasMore    bool        `json:"hasMore,omitempty"`
}
