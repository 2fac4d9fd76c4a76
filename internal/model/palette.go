package model

import "strings"

// Palette is the fixed badge color set. Colors are shared by value; Name is the
// stable identifier persisted in documents.
var Palette = []Color{
	{Name: "slate", Value: "#64748b", TextDark: false},
	{Name: "red", Value: "#ef4444", TextDark: false},
	{Name: "orange", Value: "#f97316", TextDark: true},
	{Name: "amber", Value: "#f59e0b", TextDark: true},
	{Name: "green", Value: "#22c55e", TextDark: true},
	{Name: "teal", Value: "#14b8a6", TextDark: true},
	{Name: "blue", Value: "#3b82f6", TextDark: false},
	{Name: "violet", Value: "#8b5cf6", TextDark: false},
	{Name: "pink", Value: "#ec4899", TextDark: false},
}

// DefaultColor is used for entities created without an explicit color choice.
var DefaultColor = Palette[0]

func ColorByName(name string) (Color, bool) {
	needle := strings.TrimSpace(strings.ToLower(name))
	for _, c := range Palette {
		if c.Name == needle {
			return c, true
		}
	}
	return Color{}, false
}

// NextColor cycles through the palette, used by forms stepping a color field.
func NextColor(current Color, delta int) Color {
	index := 0
	for i, c := range Palette {
		if c.Name == current.Name {
			index = i
			break
		}
	}
	index = (index + delta + len(Palette)) % len(Palette)
	return Palette[index]
}
