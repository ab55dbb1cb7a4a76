package utils

import (
	"strings"
	"unicode/utf8"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// ellipsis 截断文本时追加的省略号
const ellipsis = "..."

// WrapText 将文本按指定宽度自动换行
// 参数:
//   - textStr: 要换行的文本
//   - font: 字体
//   - maxWidth: 最大宽度（像素）
//
// 返回:
//   - []string: 换行后的文本数组（每个元素为一行）
//
// 换行规则:
//   - 优先在空格处断行
//   - 单个单词超过最大宽度时按字符强制断行
func WrapText(textStr string, font *text.GoTextFace, maxWidth float64) []string {
	if textStr == "" || font == nil || maxWidth <= 0 {
		return []string{textStr}
	}
	if measureTextWidth(textStr, font) <= maxWidth {
		return []string{textStr}
	}

	var lines []string
	currentLine := ""
	for _, word := range strings.Fields(textStr) {
		candidate := word
		if currentLine != "" {
			candidate = currentLine + " " + word
		}
		if measureTextWidth(candidate, font) <= maxWidth {
			currentLine = candidate
			continue
		}

		if currentLine != "" {
			lines = append(lines, currentLine)
			currentLine = ""
		}
		// 单词本身放不下，按字符切开
		for measureTextWidth(word, font) > maxWidth {
			head := fitRunes(word, font, maxWidth)
			lines = append(lines, head)
			word = word[len(head):]
		}
		currentLine = word
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}
	return lines
}

// FitText 文本超过最大宽度时截断并追加省略号
func FitText(textStr string, font *text.GoTextFace, maxWidth float64) string {
	if font == nil || measureTextWidth(textStr, font) <= maxWidth {
		return textStr
	}
	room := maxWidth - measureTextWidth(ellipsis, font)
	if room <= 0 {
		return ellipsis
	}
	head := fitRunes(textStr, font, room)
	if measureTextWidth(head, font) > room {
		return ellipsis
	}
	return strings.TrimRight(head, " ") + ellipsis
}

// fitRunes 返回能放进 maxWidth 的最长前缀，至少包含一个字符
func fitRunes(s string, font *text.GoTextFace, maxWidth float64) string {
	end := 0
	for end < len(s) {
		_, size := utf8.DecodeRuneInString(s[end:])
		if end > 0 && measureTextWidth(s[:end+size], font) > maxWidth {
			break
		}
		end += size
	}
	return s[:end]
}

// measureTextWidth 测量文本宽度
func measureTextWidth(textStr string, font *text.GoTextFace) float64 {
	if textStr == "" || font == nil {
		return 0
	}
	width, _ := text.Measure(textStr, font, 0)
	return width
}
