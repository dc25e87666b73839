package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// IsColorToken проверяет цвет в формате #RGB или #RRGGBB
func IsColorToken(s string) bool {
	return hexColor.MatchString(s)
}

// NormalizeColor приводит цвет к виду #RRGGBB в верхнем регистре
func NormalizeColor(s string) string {
	if !IsColorToken(s) {
		return s
	}
	hex := strings.ToUpper(s[1:])
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	return "#" + hex
}

type swatch struct {
	emoji   string
	r, g, b int
}

var swatches = []swatch{
	{"🔴", 0xEF, 0x44, 0x44},
	{"🟠", 0xF9, 0x73, 0x16},
	{"🟡", 0xFD, 0xE6, 0x8A},
	{"🟢", 0x22, 0xC5, 0x5E},
	{"🔵", 0x3B, 0x82, 0xF6},
	{"🟣", 0xA8, 0x55, 0xF7},
	{"🟤", 0x92, 0x40, 0x0E},
	{"⚫", 0x00, 0x00, 0x00},
	{"⚪", 0xFF, 0xFF, 0xFF},
}

// GetColorEmoji ближайший цветной кружок для цвета шага (Telegram не умеет фон)
func GetColorEmoji(color string) string {
	if !IsColorToken(color) {
		return "📌"
	}
	hex := NormalizeColor(color)
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return "📌"
	}
	r, g, b := int(v>>16&0xFF), int(v>>8&0xFF), int(v&0xFF)

	best, bestDist := swatches[0].emoji, -1
	for _, s := range swatches {
		dr, dg, db := r-s.r, g-s.g, b-s.b
		dist := dr*dr + dg*dg + db*db
		if bestDist < 0 || dist < bestDist {
			best, bestDist = s.emoji, dist
		}
	}
	return best
}
