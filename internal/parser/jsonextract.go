package parser

import "strings"

// firstJSONObject 从LLM响应文本中截取第一个括号配平的JSON对象
// 模型经常在JSON前后输出解释文字或Markdown围栏，这里不依赖格式约定，
// 直接从第一个 '{' 开始做层级扫描
func firstJSONObject(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	level := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			level++
		case '}':
			level--
			if level == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// repairJSONQuotes 修复字符串字面量内部未转义的双引号
// 判定规则：字符串中的 " 只有在下一个非空白字符是 :, ], }, 或 , 时
// 才视为真正的字符串结束，否则改写为 \"
// \\ 与 \" 的转义序列按原样保留
func repairJSONQuotes(src string) string {
	var b strings.Builder
	inStr := false
	escaped := false

	for i := 0; i < len(src); i++ {
		c := src[i]

		switch {
		case c == '"' && !escaped:
			if !inStr {
				inStr = true
				b.WriteByte(c)
			} else {
				j := i + 1
				for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n' || src[j] == '\r') {
					j++
				}
				if j < len(src) && (src[j] == ':' || src[j] == ',' || src[j] == ']' || src[j] == '}') {
					inStr = false
					b.WriteByte(c)
				} else {
					b.WriteString("\\\"")
				}
			}
			escaped = false

		case c == '\\' && !escaped:
			escaped = true
			b.WriteByte(c)

		default:
			b.WriteByte(c)
			escaped = false
		}
	}

	return b.String()
}

// truncateRunes 按字符数截断文本，用于控制提示词长度
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
