package tui

import (
	"context"
	"fmt"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"

	"kanbo/internal/board"
	"kanbo/internal/model"
)

func (u *UI) addItem(*gocui.Gui, *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	containerID, ok := u.focusedContainerID()
	if !ok {
		return nil
	}
	u.form = newItemForm(containerID, nil)
	return nil
}

func (u *UI) editItem(*gocui.Gui, *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	itemID, ok := u.selectedItemID()
	if !ok {
		return nil
	}
	containerID, _ := u.focusedContainerID()
	item := u.current.Items[itemID]
	u.form = newItemForm(containerID, &item)
	return nil
}

func (u *UI) addContainer(*gocui.Gui, *gocui.View) error {
	if u.inputActive() || u.current == nil {
		return nil
	}
	u.form = newContainerForm(nil)
	return nil
}

func (u *UI) editContainer(*gocui.Gui, *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	containerID, ok := u.focusedContainerID()
	if !ok {
		return nil
	}
	container := u.current.Containers[containerID]
	u.form = newContainerForm(&container)
	return nil
}

func (u *UI) newBoard(*gocui.Gui, *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.form = newBoardForm()
	return nil
}

func (u *UI) editBoardMeta(*gocui.Gui, *gocui.View) error {
	if u.inputActive() || u.current == nil {
		return nil
	}
	u.form = newBoardMetaForm(u.current)
	return nil
}

func (u *UI) showForm(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := min(56, maxX-2)
	height := len(u.form.fields) + 1
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewForm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	view.Title = u.form.title() + " (tab next, enter save, esc cancel)"
	view.Editable = true
	view.Editor = u.formEditor
	u.renderForm(view)
	_, _ = gui.SetViewOnTop(viewForm)
	_, _ = gui.SetCurrentView(viewForm)
	return nil
}

func (u *UI) renderForm(view *gocui.View) {
	view.Clear()
	for i, field := range u.form.fields {
		marker := " "
		if i == u.form.index {
			marker = ">"
		}
		fmt.Fprintf(view, "%s %s: %s\n", marker, field.Label, field.Value)
	}
	active := u.form.fields[u.form.index]
	view.SetCursor(len(active.Label)+len(active.Value)+4, u.form.index)
}

func (u *UI) nextFormField(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	u.form.index = (u.form.index + 1) % len(u.form.fields)
	u.renderForm(view)
	return nil
}

func (u *UI) submitForm(gui *gocui.Gui, _ *gocui.View) error {
	if u.form == nil {
		return nil
	}
	form := u.form

	var err error
	switch form.kind {
	case formItem:
		err = u.submitItemForm(form)
	case formContainer:
		err = u.submitContainerForm(form)
	case formBoardNew:
		err = u.submitBoardForm(gui, form)
	case formBoardMeta:
		err = u.submitBoardMetaForm(form)
	}
	if err != nil {
		u.status = friendlyError(err)
		return nil
	}

	u.form = nil
	if gui != nil {
		_ = gui.DeleteView(viewForm)
		_, _ = gui.SetCurrentView(viewHeader)
	}
	return nil
}

func (u *UI) submitItemForm(form *formState) error {
	content := form.fields[itemFieldContent].Value
	if content == "" {
		return fmt.Errorf("card content cannot be empty")
	}
	color, err := form.colorField(itemFieldColor)
	if err != nil {
		return err
	}
	completed := form.fields[itemFieldCompleted].Value == "yes"

	return u.mutateForm(func(b *model.Board) error {
		if form.itemID == "" {
			itemID, err := board.AddItem(b, form.containerID, content, color)
			if err != nil {
				return err
			}
			if completed {
				return board.ToggleItemCompleted(b, itemID)
			}
			return nil
		}
		return board.UpdateItem(b, form.itemID, content, color, completed)
	})
}

func (u *UI) submitContainerForm(form *formState) error {
	title := form.fields[containerFieldTitle].Value
	if title == "" {
		return fmt.Errorf("column title cannot be empty")
	}
	ctype := model.ContainerType(form.fields[containerFieldType].Value)
	order := model.CompletedOrder(form.fields[containerFieldOrder].Value)
	color, err := form.colorField(containerFieldColor)
	if err != nil {
		return err
	}

	return u.mutateForm(func(b *model.Board) error {
		containerID := form.containerID
		if containerID == "" {
			var err error
			containerID, err = board.AddContainer(b, title)
			if err != nil {
				return err
			}
		}
		return board.UpdateContainer(b, containerID, title, ctype, order, color)
	})
}

func (u *UI) submitBoardForm(gui *gocui.Gui, form *formState) error {
	title := form.fields[0].Value
	if title == "" {
		return fmt.Errorf("board title cannot be empty")
	}
	b, err := u.store.CreateBoard(context.Background(), title)
	if err != nil {
		return err
	}
	u.current = b
	u.focusCol = 0
	u.selected = make(map[string]int)
	u.moved = nil
	return nil
}

func (u *UI) submitBoardMetaForm(form *formState) error {
	title := form.fields[0].Value
	if title == "" {
		return fmt.Errorf("board title cannot be empty")
	}
	tags := parseTagList(form.fields[1].Value)
	return u.mutateForm(func(b *model.Board) error {
		b.Title = title
		board.SetTags(b, tags)
		return nil
	})
}

// mutateForm is mutateCurrent minus the status swallowing: form submits keep
// the form open on failure, so errors propagate to the caller.
func (u *UI) mutateForm(fn func(*model.Board) error) error {
	if u.current == nil {
		return fmt.Errorf("no board open")
	}
	b, err := u.store.Mutate(context.Background(), u.current.Slug, fn)
	if err != nil {
		return err
	}
	u.current = b
	u.clampSelection()
	u.moved = nil
	u.status = ""
	return nil
}

// Edit drives the focused form field. Cycle fields step through their options
// with space or the horizontal arrows; text fields take plain input.
func (e *formEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	form := e.ui.form
	if form == nil {
		return false
	}
	field := &form.fields[form.index]

	if field.Cycle != nil {
		switch {
		case key == gocui.KeySpace || key == gocui.KeyArrowRight || ch == ' ':
			field.Value = cycleOption(field.Cycle, field.Value, 1)
		case key == gocui.KeyArrowLeft:
			field.Value = cycleOption(field.Cycle, field.Value, -1)
		default:
			return false
		}
		e.ui.renderForm(view)
		return true
	}

	switch {
	case ch != 0 && mod == gocui.ModNone:
		field.Value += string(ch)
	case key == gocui.KeySpace:
		field.Value += " "
	case key == gocui.KeyBackspace || key == gocui.KeyBackspace2:
		if len(field.Value) > 0 {
			runes := []rune(field.Value)
			field.Value = string(runes[:len(runes)-1])
		}
	default:
		return false
	}
	e.ui.renderForm(view)
	return true
}
