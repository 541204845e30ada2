package domain

import "strings"

type TeamColor string

const (
	ColorRed    TeamColor = "red"
	ColorBlue   TeamColor = "blue"
	ColorWhite  TeamColor = "white"
	ColorGreen  TeamColor = "green"
	ColorPurple TeamColor = "purple"
	ColorYellow TeamColor = "yellow"
)

const fallbackHex = "#6B7280"

var teamColorHex = map[TeamColor]string{
	ColorRed:    "#EF4444",
	ColorBlue:   "#3B82F6",
	ColorWhite:  "#6B7280",
	ColorGreen:  "#10B981",
	ColorPurple: "#8B5CF6",
	ColorYellow: "#F59E0B",
}

// TeamColors is the palette in display order.
var TeamColors = []TeamColor{ColorRed, ColorBlue, ColorWhite, ColorGreen, ColorPurple, ColorYellow}

func (c TeamColor) Valid() bool {
	_, ok := teamColorHex[c]
	return ok
}

func (c TeamColor) Hex() string {
	if hex, ok := teamColorHex[c]; ok {
		return hex
	}
	return fallbackHex
}

// Initials returns up to two upper-case initials, or "?" for a blank name.
func Initials(name string) string {
	var initials []rune
	for _, word := range strings.Fields(name) {
		initials = append(initials, []rune(word)[0])
		if len(initials) == 2 {
			break
		}
	}
	if len(initials) == 0 {
		return "?"
	}
	return strings.ToUpper(string(initials))
}
