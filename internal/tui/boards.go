package tui

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
)

func (u *UI) toggleBoards(gui *gocui.Gui, _ *gocui.View) error {
	if u.form != nil || u.helpActive {
		return nil
	}
	if u.pickerActive {
		return u.closeOverlay(gui, nil)
	}
	if err := u.loadRecent(); err != nil {
		return err
	}
	u.pickerActive = true
	u.pickerIndex = 0
	u.confirmReset = false
	return nil
}

func (u *UI) showBoards(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := min(60, maxX-2)
	height := min(len(u.recent)+3, maxY-2)
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewBoards, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	view.Title = "Boards (enter open, d delete, X reset all, esc close)"
	view.Clear()

	if len(u.recent) == 0 {
		fmt.Fprintln(view, " no boards, press n to create one")
	}
	for i, b := range u.recent {
		prefix := " "
		if i == u.pickerIndex {
			prefix = ">"
		}
		tags := make([]string, 0, len(b.Tags))
		for _, tag := range b.Tags {
			tags = append(tags, "#"+tag.Text)
		}
		line := fmt.Sprintf("%s %s (%d columns, %d cards)", prefix, b.Title, len(b.ContainerOrder), len(b.Items))
		if len(tags) > 0 {
			line += " " + strings.Join(tags, " ")
		}
		fmt.Fprintln(view, line)
	}
	if u.confirmReset {
		fmt.Fprintln(view, "")
		fmt.Fprintln(view, " press X again to delete ALL boards")
	}

	_, _ = gui.SetViewOnTop(viewBoards)
	_, _ = gui.SetCurrentView(viewBoards)
	return nil
}

func (u *UI) pickerDown() error {
	if !u.pickerActive {
		return nil
	}
	if u.pickerIndex < len(u.recent)-1 {
		u.pickerIndex++
	}
	u.confirmReset = false
	return nil
}

func (u *UI) pickerUp() error {
	if !u.pickerActive {
		return nil
	}
	if u.pickerIndex > 0 {
		u.pickerIndex--
	}
	u.confirmReset = false
	return nil
}

func (u *UI) openSelectedBoard(gui *gocui.Gui, _ *gocui.View) error {
	if !u.pickerActive || u.pickerIndex >= len(u.recent) {
		return nil
	}
	b, err := u.store.GetBoard(context.Background(), u.recent[u.pickerIndex].Slug)
	if err != nil {
		u.status = friendlyError(err)
		return u.closeOverlay(gui, nil)
	}
	u.current = b
	u.focusCol = 0
	u.selected = make(map[string]int)
	u.moved = nil
	u.status = ""
	return u.closeOverlay(gui, nil)
}

func (u *UI) deleteSelectedBoard(*gocui.Gui, *gocui.View) error {
	if !u.pickerActive || u.pickerIndex >= len(u.recent) {
		return nil
	}
	slug := u.recent[u.pickerIndex].Slug
	if err := u.store.DeleteBoard(context.Background(), slug); err != nil {
		u.status = friendlyError(err)
		return nil
	}
	if u.current != nil && u.current.Slug == slug {
		u.current = nil
	}
	// Subscribe callback reloads the list; refresh here too so the picker
	// redraws without waiting for the queued update.
	return u.refresh()
}

// resetStore wipes every board. Destructive, so it wants the key twice.
func (u *UI) resetStore(*gocui.Gui, *gocui.View) error {
	if !u.pickerActive {
		return nil
	}
	if !u.confirmReset {
		u.confirmReset = true
		return nil
	}
	u.confirmReset = false
	if err := u.store.ResetAll(context.Background()); err != nil {
		u.status = friendlyError(err)
		return nil
	}
	u.current = nil
	u.selected = make(map[string]int)
	u.focusCol = 0
	u.moved = nil
	return u.refresh()
}
