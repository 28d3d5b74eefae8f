package ingest

import (
	"math/rand"
	"path"
	"regexp"
	"strings"
)

// UnknownArtist 标签缺失时的艺术家兜底值
const UnknownArtist = "Unknown Artist"

// UnknownGenre 分类失败时的流派兜底值
const UnknownGenre = "Unknown"

var (
	// 前导音轨号，如 "02 " / "07. " / "3 - "
	trackNumberRe = regexp.MustCompile(`^\d{1,2}[\s._-]+`)
	// 尾部码率标记，如 "320Kbps" / "128 kbps"
	bitrateRe = regexp.MustCompile(`(?i)[\s_-]*\d{2,3}\s?kbps\s*$`)
	// 下划线转空格后的多余空白
	spacesRe = regexp.MustCompile(`\s{2,}`)
)

// CleanTitle 从文件名推导标题的兜底值
// "02 My Song 320Kbps.mp3" 清理为 "My Song"
func CleanTitle(fileName string) string {
	name := strings.TrimSuffix(fileName, path.Ext(fileName))
	name = strings.ReplaceAll(name, "_", " ")
	name = trackNumberRe.ReplaceAllString(name, "")
	name = bitrateRe.ReplaceAllString(name, "")
	name = spacesRe.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	if name == "" {
		return fileName
	}
	return name
}

// placeholderArt 固定的占位封面池，标签里没有内嵌封面时随机取一张
var placeholderArt = []string{
	"https://placehold.co/300x300/1db954/ffffff?text=Music",
	"https://placehold.co/300x300/7c3aed/ffffff?text=Music",
	"https://placehold.co/300x300/f59e0b/ffffff?text=Music",
	"https://placehold.co/300x300/ef4444/ffffff?text=Music",
	"https://placehold.co/300x300/0ea5e9/ffffff?text=Music",
}

// RandomPlaceholderArt 随机返回一张占位封面
func RandomPlaceholderArt() string {
	return placeholderArt[rand.Intn(len(placeholderArt))]
}
