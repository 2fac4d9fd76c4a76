package tui

import (
	"fmt"
	"strings"

	"kanbo/internal/model"
)

type formKind int

const (
	formItem formKind = iota
	formContainer
	formBoardNew
	formBoardMeta
)

type formField struct {
	Label string
	Value string
	Cycle []string // non-nil fields step through fixed options instead of free text
}

type formState struct {
	kind        formKind
	itemID      string
	containerID string
	fields      []formField
	index       int
}

const (
	itemFieldContent = iota
	itemFieldColor
	itemFieldCompleted
)

const (
	containerFieldTitle = iota
	containerFieldType
	containerFieldOrder
	containerFieldColor
)

func paletteNames() []string {
	names := make([]string, 0, len(model.Palette))
	for _, c := range model.Palette {
		names = append(names, c.Name)
	}
	return names
}

func newItemForm(containerID string, item *model.Item) *formState {
	fields := []formField{
		{Label: "Content"},
		{Label: "Color (space/←→)", Cycle: paletteNames()},
		{Label: "Completed (space)", Cycle: []string{"no", "yes"}},
	}
	form := &formState{kind: formItem, containerID: containerID, fields: fields}
	if item == nil {
		fields[itemFieldColor].Value = model.DefaultColor.Name
		fields[itemFieldCompleted].Value = "no"
		return form
	}

	form.itemID = item.ID
	fields[itemFieldContent].Value = item.Content
	fields[itemFieldColor].Value = item.BadgeColor.Name
	if item.Completed {
		fields[itemFieldCompleted].Value = "yes"
	} else {
		fields[itemFieldCompleted].Value = "no"
	}
	return form
}

func newContainerForm(container *model.Container) *formState {
	fields := []formField{
		{Label: "Title"},
		{Label: "Type (space/←→)", Cycle: []string{string(model.ContainerChecklist), string(model.ContainerSimple)}},
		{Label: "Completed items (space/←→)", Cycle: []string{string(model.CompletedNoSort), string(model.CompletedAtStart), string(model.CompletedAtEnd)}},
		{Label: "Color (space/←→)", Cycle: paletteNames()},
	}
	form := &formState{kind: formContainer, fields: fields}
	if container == nil {
		fields[containerFieldType].Value = string(model.ContainerChecklist)
		fields[containerFieldOrder].Value = string(model.CompletedNoSort)
		fields[containerFieldColor].Value = model.DefaultColor.Name
		return form
	}

	form.containerID = container.ID
	fields[containerFieldTitle].Value = container.Title
	fields[containerFieldType].Value = string(container.Type)
	fields[containerFieldOrder].Value = string(container.CompletedItemOrder)
	fields[containerFieldColor].Value = container.BadgeColor.Name
	return form
}

func newBoardForm() *formState {
	return &formState{kind: formBoardNew, fields: []formField{{Label: "Title"}}}
}

func newBoardMetaForm(b *model.Board) *formState {
	tags := make([]string, 0, len(b.Tags))
	for _, tag := range b.Tags {
		tags = append(tags, tag.Text)
	}
	return &formState{kind: formBoardMeta, fields: []formField{
		{Label: "Title", Value: b.Title},
		{Label: "Tags (comma separated)", Value: strings.Join(tags, ", ")},
	}}
}

func (f *formState) title() string {
	switch f.kind {
	case formItem:
		if f.itemID != "" {
			return "Edit Card"
		}
		return "New Card"
	case formContainer:
		if f.containerID != "" {
			return "Edit Column"
		}
		return "New Column"
	case formBoardNew:
		return "New Board"
	default:
		return "Board Settings"
	}
}

func (f *formState) colorField(index int) (model.Color, error) {
	color, ok := model.ColorByName(f.fields[index].Value)
	if !ok {
		return model.Color{}, fmt.Errorf("unknown color %q", f.fields[index].Value)
	}
	return color, nil
}

func cycleOption(options []string, current string, delta int) string {
	if len(options) == 0 {
		return current
	}
	index := 0
	for i, option := range options {
		if option == current {
			index = i
			break
		}
	}
	index = (index + delta + len(options)) % len(options)
	return options[index]
}

func parseTagList(value string) []model.BoardTag {
	parts := strings.Split(value, ",")
	tags := make([]model.BoardTag, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		tags = append(tags, model.BoardTag{Text: trimmed, Color: model.DefaultColor})
	}
	return tags
}
