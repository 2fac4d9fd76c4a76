package board

import (
	"sort"
	"strings"

	"kanbo/internal/model"
)

// CollectTags flattens the tags of every board in order, for the tag picker.
func CollectTags(boards []model.Board) []model.BoardTag {
	var tags []model.BoardTag
	for _, b := range boards {
		tags = append(tags, b.Tags...)
	}
	return tags
}

// DedupeTags de-duplicates by case-folded text, keeping the last occurrence of
// each text, and sorts ascending by the folded text. The sort is stable so
// equal keys keep their relative order.
func DedupeTags(tags []model.BoardTag) []model.BoardTag {
	byText := make(map[string]model.BoardTag, len(tags))
	order := make([]string, 0, len(tags))
	for _, tag := range tags {
		key := foldTag(tag.Text)
		if key == "" {
			continue
		}
		if _, seen := byText[key]; !seen {
			order = append(order, key)
		}
		byText[key] = tag
	}

	out := make([]model.BoardTag, 0, len(order))
	for _, key := range order {
		out = append(out, byText[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return foldTag(out[i].Text) < foldTag(out[j].Text)
	})
	return out
}

func foldTag(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
