package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	leadingFloatRE = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)`)
	leadingIntRE   = regexp.MustCompile(`^[+-]?\d+`)

	// VotesRE 匹配“1234 人评价”这类本地化字符串中的数字。
	VotesRE = regexp.MustCompile(`(\d+)\s*人评价`)
	// DigitsRE 取第一段连续数字。
	DigitsRE = regexp.MustCompile(`(\d+)`)
)

// ParseScore 解析评分：取前导浮点数（"8.5" / "8.5分"）。
// 空串、无数字、NaN/Inf 都视为缺失，而不是 0。
func ParseScore(s string) (float64, bool) {
	m := leadingFloatRE.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseLeadingInt 解析前导整数（"12" / "12."）；无法解析返回 false。
func ParseLeadingInt(s string) (int, bool) {
	m := leadingIntRE.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseCount 取 re 的第一个捕获组作为整数；任何失败都回退为 0（没有人数即视为零参与）。
func ParseCount(re *regexp.Regexp, s string) int {
	if re == nil {
		return 0
	}
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return 0
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return v
}

// SplitList 按 sep 切分并去掉空白项；输入为空时返回 nil。
func SplitList(s, sep string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func SquashSpace(s string) string { return strings.Join(strings.Fields(s), " ") }
