// Package extract 把上游原始页面/JSON 转换为统一的 domain.Record。
//
// 每个类别的抽取规则是一份声明式 Schema（字段 -> 定位器 -> 解析规则），
// 由同一个解释器 Schema.Parse 执行；Parse 是纯函数：相同输入 => 相同输出。
package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/doubanhot/internal/domain"
)

// Target 是 Record 上的目标字段。
type Target int

const (
	TargetTitle Target = iota
	TargetScore
	TargetRank
	TargetVotes
	TargetReleaseDate
	TargetDuration
	TargetRegion
	TargetDirectors
	TargetActors
	TargetQuote
	TargetDescription
	TargetPoster
	TargetLink
)

// Match 决定定位器命中多个元素时取哪一个。
type Match int

const (
	MatchFirst Match = iota
	MatchLast
	// MatchAll 拼接所有命中元素的文本（属性仍取第一个）。
	MatchAll
)

// Locator 在单个条目元素内定位一个原始字符串。
// Selector 为空表示条目元素本身；Attr 非空时读属性，否则读文本。
type Locator struct {
	Selector string
	Attr     string
	Match    Match
}

// Kind 是原始字符串到字段值的解析规则。
type Kind int

const (
	// KindText：去首尾空白。
	KindText Kind = iota
	// KindSquash：去首尾空白并把连续空白折叠为一个空格。
	KindSquash
	// KindFloat：前导浮点数；无法解析 => 缺失。
	KindFloat
	// KindInt：前导整数；无法解析 => 缺失。
	KindInt
	// KindCount：Pattern 的第一个捕获组；无法解析 => 0。
	KindCount
	// KindList：按 Sep 切分，去空白并丢弃空项。
	KindList
)

type Rule struct {
	Kind    Kind
	Pattern *regexp.Regexp
	Sep     string
}

func Text() Rule { return Rule{Kind: KindText} }
func Squash() Rule { return Rule{Kind: KindSquash} }
func Float() Rule { return Rule{Kind: KindFloat} }
func Int() Rule { return Rule{Kind: KindInt} }
func Count(re *regexp.Regexp) Rule { return Rule{Kind: KindCount, Pattern: re} }
func List(sep string) Rule { return Rule{Kind: KindList, Sep: sep} }

type Field struct {
	Target Target
	Loc    Locator
	Rule   Rule
}

// Schema 是一个类别的完整抽取规则。
type Schema struct {
	Category domain.Category
	// Item 选中文档中的条目元素（按文档顺序迭代）。
	Item   string
	Fields []Field
}

// Validate 检查 Schema 自身是否完整（而不是检查页面）。
func (s Schema) Validate() error {
	if !s.Category.Valid() {
		return fmt.Errorf("未知类别：%q", s.Category)
	}
	if strings.TrimSpace(s.Item) == "" {
		return fmt.Errorf("%s: item selector 不能为空", s.Category)
	}
	hasTitle := false
	for _, f := range s.Fields {
		if f.Target == TargetTitle {
			hasTitle = true
		}
		if f.Rule.Kind == KindCount && f.Rule.Pattern == nil {
			return fmt.Errorf("%s: count 规则缺少 pattern", s.Category)
		}
		if f.Rule.Kind == KindList && f.Rule.Sep == "" {
			return fmt.Errorf("%s: list 规则缺少分隔符", s.Category)
		}
	}
	if !hasTitle {
		return fmt.Errorf("%s: 缺少 title 字段", s.Category)
	}
	return nil
}

// Parse 按文档顺序抽取全部条目。
//
// 容错策略按字段而非按条目：非标题字段缺失只会让该字段缺失；
// 标题为空的条目被静默跳过（结构漂移容忍），不视为错误。
func (s Schema) Parse(html []byte) ([]domain.Record, error) {
	if len(html) == 0 {
		return nil, fmt.Errorf("%s: html 为空", s.Category)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	out := make([]domain.Record, 0, 32)
	doc.Find(s.Item).Each(func(_ int, item *goquery.Selection) {
		r := domain.Record{Type: s.Category}
		for _, f := range s.Fields {
			raw, ok := f.Loc.lookup(item)
			apply(&r, f, raw, ok)
		}
		if r.Title == "" {
			return
		}
		out = append(out, r)
	})
	return out, nil
}

func (l Locator) lookup(item *goquery.Selection) (string, bool) {
	sel := item
	if l.Selector != "" {
		sel = item.Find(l.Selector)
	}
	if sel.Length() == 0 {
		return "", false
	}
	switch l.Match {
	case MatchLast:
		sel = sel.Last()
	case MatchAll:
		if l.Attr == "" {
			return sel.Text(), true
		}
		sel = sel.First()
	default:
		sel = sel.First()
	}
	if l.Attr != "" {
		return sel.Attr(l.Attr)
	}
	return sel.Text(), true
}

func apply(r *domain.Record, f Field, raw string, ok bool) {
	switch f.Rule.Kind {
	case KindFloat:
		if v, good := ParseScore(raw); ok && good {
			setFloat(r, f.Target, v)
		}
		return
	case KindInt:
		if v, good := ParseLeadingInt(raw); ok && good {
			setInt(r, f.Target, v)
		}
		return
	case KindCount:
		setInt(r, f.Target, ParseCount(f.Rule.Pattern, raw))
		return
	case KindList:
		if ok {
			setList(r, f.Target, SplitList(raw, f.Rule.Sep))
		}
		return
	case KindSquash:
		raw = SquashSpace(raw)
	default:
		raw = strings.TrimSpace(raw)
	}
	if ok {
		setString(r, f.Target, raw)
	}
}

func setFloat(r *domain.Record, t Target, v float64) {
	if t == TargetScore {
		r.Score = &v
	}
}

func setInt(r *domain.Record, t Target, v int) {
	switch t {
	case TargetRank:
		r.Rank = &v
	case TargetVotes:
		r.Votes = &v
	}
}

func setList(r *domain.Record, t Target, v []string) {
	switch t {
	case TargetDirectors:
		r.Directors = v
	case TargetActors:
		r.Actors = v
	}
}

func setString(r *domain.Record, t Target, v string) {
	switch t {
	case TargetTitle:
		r.Title = v
	case TargetReleaseDate:
		r.ReleaseDate = v
	case TargetDuration:
		r.Duration = v
	case TargetRegion:
		r.Region = v
	case TargetQuote:
		r.Quote = v
	case TargetDescription:
		r.Description = v
	case TargetPoster:
		r.Poster = v
	case TargetLink:
		r.Link = v
	}
}
