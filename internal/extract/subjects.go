package extract

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/John-Robertt/doubanhot/internal/domain"
)

// subjectsPayload 对应 search_subjects 接口：{ "subjects": [...] }。
type subjectsPayload struct {
	Subjects []subject `json:"subjects"`
}

type subject struct {
	Title string     `json:"title"`
	Rate  flexString `json:"rate"`
	Cover string     `json:"cover"`
	URL   string     `json:"url"`
}

// flexString 兼容 "rate": "8.1" 与 "rate": 8.1 两种写法。
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(b), 64); err != nil {
		return fmt.Errorf("rate 不是数字：%s", b)
	}
	*f = flexString(b)
	return nil
}

// Subjects 把 JSON payload 1:1 映射为 Record：rate→score、cover→poster、url→link。
//
// 缺少 subjects 键返回空切片而不是错误；无标题的 subject 会被丢弃。
func Subjects(category domain.Category, body []byte) ([]domain.Record, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%s: json 为空", category)
	}
	var p subjectsPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%s: 解析 json 失败：%w", category, err)
	}

	out := make([]domain.Record, 0, len(p.Subjects))
	for _, s := range p.Subjects {
		title := strings.TrimSpace(s.Title)
		if title == "" {
			continue
		}
		r := domain.Record{
			Title:  title,
			Poster: strings.TrimSpace(s.Cover),
			Link:   strings.TrimSpace(s.URL),
			Type:   category,
		}
		if v, ok := ParseScore(string(s.Rate)); ok {
			r.Score = &v
		}
		out = append(out, r)
	}
	return out, nil
}
