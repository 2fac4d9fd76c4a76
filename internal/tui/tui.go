package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"

	"kanbo/internal/board"
	"kanbo/internal/db"
	"kanbo/internal/model"
)

const (
	viewHeader = "header"
	viewFooter = "footer"
	viewEmpty  = "empty"
	viewHelp   = "help"
	viewForm   = "form"
	viewBoards = "boards"

	columnViewPrefix = "column:"
)

type UI struct {
	store  *db.Store
	engine *board.Engine
	gui    *gocui.Gui

	current *model.Board
	recent  []model.Board

	focusCol int
	selected map[string]int // container id -> selected item index

	pickerActive bool
	pickerIndex  int
	helpActive   bool
	confirmReset bool

	form       *formState
	formEditor *formEditor

	// moved holds the rect deltas of the last reorder so the next render can
	// mark rows that travelled.
	moved map[string]board.RectDelta

	status      string
	columnViews []string
}

type formEditor struct {
	ui *UI
}

func Run(store *db.Store, initialSlug string) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := &UI{
		store:    store,
		engine:   board.NewEngine(store),
		gui:      gui,
		selected: make(map[string]int),
	}
	ui.formEditor = &formEditor{ui: ui}

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}
	if err := ui.openInitialBoard(initialSlug); err != nil {
		return err
	}

	unsubscribe := store.Subscribe(func(string) {
		gui.Update(func(*gocui.Gui) error {
			return ui.refresh()
		})
	})
	defer unsubscribe()

	if err := gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}
	return nil
}

func (u *UI) openInitialBoard(slug string) error {
	if err := u.loadRecent(); err != nil {
		return err
	}
	if slug != "" {
		b, err := u.store.GetBoard(context.Background(), slug)
		if err != nil {
			return err
		}
		u.current = b
		return nil
	}
	if len(u.recent) > 0 {
		u.current = u.recent[0].Clone()
		return nil
	}

	// First run: nothing persisted yet.
	b, err := u.store.CreateBoard(context.Background(), "My Board")
	if err != nil {
		return err
	}
	u.current = b
	return nil
}

func (u *UI) loadRecent() error {
	recent, err := u.store.RecentBoards(context.Background(), 20)
	if err != nil {
		return err
	}
	u.recent = recent
	if u.pickerIndex >= len(u.recent) {
		u.pickerIndex = max(len(u.recent)-1, 0)
	}
	return nil
}

// refresh reloads the recent list and the current board from the store. The
// store notifies on every committed write, so this is also the live-query
// callback path.
func (u *UI) refresh() error {
	if err := u.loadRecent(); err != nil {
		return err
	}
	if u.current == nil {
		return nil
	}
	b, err := u.store.GetBoard(context.Background(), u.current.Slug)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			u.current = nil
			if len(u.recent) > 0 {
				u.current = u.recent[0].Clone()
			}
			return nil
		}
		return err
	}
	u.current = b
	u.clampSelection()
	return nil
}

func (u *UI) clampSelection() {
	if u.current == nil {
		return
	}
	if u.focusCol >= len(u.current.ContainerOrder) {
		u.focusCol = max(len(u.current.ContainerOrder)-1, 0)
	}
	for _, containerID := range u.current.ContainerOrder {
		count := len(u.current.ContainerItemMapping[containerID])
		if u.selected[containerID] >= count {
			u.selected[containerID] = max(count-1, 0)
		}
	}
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	type binding struct {
		key     any
		handler func(*gocui.Gui, *gocui.View) error
	}
	bindings := []binding{
		{gocui.KeyCtrlC, u.quit},
		{'q', u.quit},
		{'?', u.toggleHelp},
		{'r', u.reload},
		{'b', u.toggleBoards},
		{'n', u.newBoard},
		{'t', u.editBoardMeta},
		{'h', u.focusLeft},
		{'l', u.focusRight},
		{gocui.KeyArrowLeft, u.focusLeft},
		{gocui.KeyArrowRight, u.focusRight},
		{'j', u.selectDown},
		{'k', u.selectUp},
		{gocui.KeyArrowDown, u.selectDown},
		{gocui.KeyArrowUp, u.selectUp},
		{'a', u.addItem},
		{'e', u.editItem},
		{'d', u.deleteItem},
		{'x', u.toggleCompleted},
		{'A', u.addContainer},
		{'E', u.editContainer},
		{'D', u.deleteContainer},
		{'J', u.moveItemDown},
		{'K', u.moveItemUp},
		{'H', u.moveItemLeft},
		{'L', u.moveItemRight},
		{'<', u.moveContainerLeft},
		{'>', u.moveContainerRight},
		{gocui.KeyEsc, u.closeOverlay},
	}
	for _, b := range bindings {
		if err := gui.SetKeybinding("", b.key, gocui.ModNone, b.handler); err != nil {
			return err
		}
	}

	if err := gui.SetKeybinding(viewForm, gocui.KeyEnter, gocui.ModNone, u.submitForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyTab, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewBoards, gocui.KeyEnter, gocui.ModNone, u.openSelectedBoard); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewBoards, 'd', gocui.ModNone, u.deleteSelectedBoard); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewBoards, 'X', gocui.ModNone, u.resetStore); err != nil {
		return err
	}
	return nil
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 0, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	u.renderHeader(headerView)

	footerY0 := max(maxY-3, 1)
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, maxY-1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	u.renderFooter(footerView)

	bodyTop := 1
	bodyBottom := footerY0 - 1
	if bodyBottom < bodyTop {
		return nil
	}

	if err := u.layoutColumns(gui, bodyTop, bodyBottom, maxX); err != nil {
		return err
	}

	if u.pickerActive {
		if err := u.showBoards(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewBoards)
	}

	if u.form != nil {
		if err := u.showForm(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewForm)
	}

	if u.helpActive {
		if err := u.showHelp(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewHelp)
	}

	if gui.CurrentView() == nil {
		_, _ = gui.SetCurrentView(viewHeader)
	}
	gui.Cursor = u.form != nil

	return nil
}

func (u *UI) layoutColumns(gui *gocui.Gui, top, bottom, maxX int) error {
	if u.current == nil || len(u.current.ContainerOrder) == 0 {
		emptyView, err := gui.SetView(viewEmpty, 0, top, maxX-1, bottom, 0)
		if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		emptyView.Frame = false
		emptyView.Clear()
		fmt.Fprintln(emptyView, "No boards yet. Press n to create one.")
		return nil
	}
	_ = gui.DeleteView(viewEmpty)

	order := u.current.ContainerOrder
	colWidth := max(maxX/len(order), 12)

	wanted := make(map[string]struct{}, len(order))
	for i, containerID := range order {
		name := columnViewPrefix + containerID
		wanted[name] = struct{}{}

		x0 := i * colWidth
		x1 := x0 + colWidth - 1
		if i == len(order)-1 {
			x1 = maxX - 1
		}
		if x0 >= maxX {
			continue
		}

		colView, err := gui.SetView(name, x0, top, min(x1, maxX-1), bottom, 0)
		if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		container := u.current.Containers[containerID]
		colView.Title = fmt.Sprintf("%d %s", i+1, container.Title)
		applyColumnStyle(colView, i == u.focusCol)
		u.renderColumn(colView, containerID, i == u.focusCol)
	}

	// Columns removed from the board leave stale views behind; drop them.
	for _, name := range u.columnViews {
		if _, ok := wanted[name]; !ok {
			_ = gui.DeleteView(name)
		}
	}
	u.columnViews = u.columnViews[:0]
	for name := range wanted {
		u.columnViews = append(u.columnViews, name)
	}
	return nil
}

func (u *UI) renderHeader(view *gocui.View) {
	view.Clear()
	if u.current == nil {
		fmt.Fprint(view, " kanbo")
		return
	}
	tags := make([]string, 0, len(u.current.Tags))
	for _, tag := range u.current.Tags {
		tags = append(tags, "#"+tag.Text)
	}
	line := fmt.Sprintf(" kanbo | %s [%s]", u.current.Title, u.current.Slug)
	if len(tags) > 0 {
		line += " " + strings.Join(tags, " ")
	}
	fmt.Fprint(view, line)
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	fmt.Fprintln(view, "a add | e edit | d delete | x done | J/K/H/L move card | </> move column | A/E/D column")
	fmt.Fprintln(view, "h/l focus | j/k select | b boards | n new board | t board settings | r reload | ? help | q quit")
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *UI) renderColumn(view *gocui.View, containerID string, focused bool) {
	view.Clear()
	container := u.current.Containers[containerID]
	itemIDs := u.current.ContainerItemMapping[containerID]
	selected := u.selected[containerID]

	for i, itemID := range itemIDs {
		item := u.current.Items[itemID]

		prefix := " "
		if i == selected {
			if focused {
				prefix = ">"
			} else {
				prefix = "*"
			}
		}

		marker := "-"
		if container.Type == model.ContainerChecklist {
			if item.Completed {
				marker = "[x]"
			} else {
				marker = "[ ]"
			}
		}

		travel := " "
		if _, ok := u.moved[itemID]; ok {
			travel = "~"
		}

		fmt.Fprintf(view, "%s%s%s %s (%s)\n", prefix, travel, marker, item.Content, item.BadgeColor.Name)
	}
	if focused && len(itemIDs) > 0 {
		view.SetCursor(0, min(selected, len(itemIDs)-1))
	}
}

func (u *UI) focusedContainerID() (string, bool) {
	if u.current == nil || len(u.current.ContainerOrder) == 0 {
		return "", false
	}
	if u.focusCol >= len(u.current.ContainerOrder) {
		u.focusCol = len(u.current.ContainerOrder) - 1
	}
	return u.current.ContainerOrder[u.focusCol], true
}

func (u *UI) selectedItemID() (string, bool) {
	containerID, ok := u.focusedContainerID()
	if !ok {
		return "", false
	}
	itemIDs := u.current.ContainerItemMapping[containerID]
	index := u.selected[containerID]
	if index < 0 || index >= len(itemIDs) {
		return "", false
	}
	return itemIDs[index], true
}

func (u *UI) focusLeft(*gocui.Gui, *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.focusCol > 0 {
		u.focusCol--
	}
	u.moved = nil
	return nil
}

func (u *UI) focusRight(*gocui.Gui, *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.current != nil && u.focusCol < len(u.current.ContainerOrder)-1 {
		u.focusCol++
	}
	u.moved = nil
	return nil
}

func (u *UI) selectDown(*gocui.Gui, *gocui.View) error {
	if u.inputActive() {
		return u.pickerDown()
	}
	containerID, ok := u.focusedContainerID()
	if !ok {
		return nil
	}
	if u.selected[containerID] < len(u.current.ContainerItemMapping[containerID])-1 {
		u.selected[containerID]++
	}
	u.moved = nil
	return nil
}

func (u *UI) selectUp(*gocui.Gui, *gocui.View) error {
	if u.inputActive() {
		return u.pickerUp()
	}
	containerID, ok := u.focusedContainerID()
	if !ok {
		return nil
	}
	if u.selected[containerID] > 0 {
		u.selected[containerID]--
	}
	u.moved = nil
	return nil
}

// columnRects models the current column layout as rectangles keyed by item id,
// matching what layoutColumns renders. Snapshots taken before and after a
// reorder feed DiffRects so moved rows can be marked.
func (u *UI) columnRects() map[string]board.Rect {
	rects := make(map[string]board.Rect)
	if u.current == nil {
		return rects
	}
	maxX := 120
	if u.gui != nil {
		maxX, _ = u.gui.Size()
	}
	colWidth := max(maxX/max(len(u.current.ContainerOrder), 1), 12)
	for col, containerID := range u.current.ContainerOrder {
		for row, itemID := range u.current.ContainerItemMapping[containerID] {
			rects[itemID] = board.Rect{X: col * colWidth, Y: row + 1, W: colWidth, H: 1}
		}
	}
	return rects
}

func (u *UI) applyGesture(g board.Gesture) error {
	if u.current == nil {
		return nil
	}
	before := u.columnRects()

	b, err := u.engine.Drop(context.Background(), u.current.Slug, g)
	if err != nil {
		u.status = friendlyError(err)
		return nil
	}
	if b == nil {
		// In-place drop, nothing written.
		return nil
	}
	u.current = b
	u.moved = board.DiffRects(before, u.columnRects())
	u.status = ""
	return nil
}

func (u *UI) moveItemUp(*gocui.Gui, *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	containerID, ok := u.focusedContainerID()
	if !ok {
		return nil
	}
	index := u.selected[containerID]
	if index <= 0 {
		return nil
	}
	if err := u.applyGesture(board.Gesture{
		Kind:            board.GestureItem,
		FromContainerID: containerID,
		FromIndex:       index,
		ToContainerID:   containerID,
		ToIndex:         index - 1,
	}); err != nil {
		return err
	}
	u.selected[containerID] = index - 1
	return nil
}

func (u *UI) moveItemDown(*gocui.Gui, *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	containerID, ok := u.focusedContainerID()
	if !ok {
		return nil
	}
	index := u.selected[containerID]
	if index >= len(u.current.ContainerItemMapping[containerID])-1 {
		return nil
	}
	if err := u.applyGesture(board.Gesture{
		Kind:            board.GestureItem,
		FromContainerID: containerID,
		FromIndex:       index,
		ToContainerID:   containerID,
		ToIndex:         index + 1,
	}); err != nil {
		return err
	}
	u.selected[containerID] = index + 1
	return nil
}

func (u *UI) moveItemLeft(gui *gocui.Gui, view *gocui.View) error {
	return u.moveItemAcross(-1)
}

func (u *UI) moveItemRight(gui *gocui.Gui, view *gocui.View) error {
	return u.moveItemAcross(1)
}

func (u *UI) moveItemAcross(direction int) error {
	if u.inputActive() {
		return nil
	}
	containerID, ok := u.focusedContainerID()
	if !ok {
		return nil
	}
	destCol := u.focusCol + direction
	if destCol < 0 || destCol >= len(u.current.ContainerOrder) {
		return nil
	}
	index := u.selected[containerID]
	if index >= len(u.current.ContainerItemMapping[containerID]) {
		return nil
	}
	destID := u.current.ContainerOrder[destCol]

	// Keep the row position when possible; the engine clamps to append.
	if err := u.applyGesture(board.Gesture{
		Kind:            board.GestureItem,
		FromContainerID: containerID,
		FromIndex:       index,
		ToContainerID:   destID,
		ToIndex:         index,
	}); err != nil {
		return err
	}
	u.focusCol = destCol
	u.selected[destID] = min(index, max(len(u.current.ContainerItemMapping[destID])-1, 0))
	return nil
}

func (u *UI) moveContainerLeft(*gocui.Gui, *gocui.View) error {
	return u.moveContainer(-1)
}

func (u *UI) moveContainerRight(*gocui.Gui, *gocui.View) error {
	return u.moveContainer(1)
}

func (u *UI) moveContainer(direction int) error {
	if u.inputActive() || u.current == nil {
		return nil
	}
	dest := u.focusCol + direction
	if dest < 0 || dest >= len(u.current.ContainerOrder) {
		return nil
	}
	if err := u.applyGesture(board.Gesture{
		Kind:      board.GestureContainer,
		FromIndex: u.focusCol,
		ToIndex:   dest,
	}); err != nil {
		return err
	}
	u.focusCol = dest
	return nil
}

func (u *UI) toggleCompleted(*gocui.Gui, *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	itemID, ok := u.selectedItemID()
	if !ok {
		return nil
	}
	return u.mutateCurrent(func(b *model.Board) error {
		return board.ToggleItemCompleted(b, itemID)
	})
}

func (u *UI) deleteItem(*gocui.Gui, *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	itemID, ok := u.selectedItemID()
	if !ok {
		return nil
	}
	return u.mutateCurrent(func(b *model.Board) error {
		return board.RemoveItem(b, itemID)
	})
}

func (u *UI) deleteContainer(*gocui.Gui, *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	containerID, ok := u.focusedContainerID()
	if !ok {
		return nil
	}
	return u.mutateCurrent(func(b *model.Board) error {
		return board.RemoveContainer(b, containerID)
	})
}

// mutateCurrent routes an aggregate operation through the store's atomic
// mutate and refreshes the in-memory board on success.
func (u *UI) mutateCurrent(fn func(*model.Board) error) error {
	if u.current == nil {
		return nil
	}
	b, err := u.store.Mutate(context.Background(), u.current.Slug, fn)
	if err != nil {
		u.status = friendlyError(err)
		return nil
	}
	u.current = b
	u.clampSelection()
	u.moved = nil
	u.status = ""
	return nil
}

func (u *UI) reload(*gocui.Gui, *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.moved = nil
	u.status = ""
	return u.refresh()
}

func (u *UI) toggleHelp(*gocui.Gui, *gocui.View) error {
	if u.form != nil || u.pickerActive {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeOverlay(gui *gocui.Gui, _ *gocui.View) error {
	switch {
	case u.form != nil:
		u.form = nil
	case u.pickerActive:
		u.pickerActive = false
		u.confirmReset = false
	case u.helpActive:
		u.helpActive = false
	}
	if gui != nil {
		_ = gui.DeleteView(viewForm)
		_ = gui.DeleteView(viewBoards)
		_, _ = gui.SetCurrentView(viewHeader)
	}
	return nil
}

func (u *UI) inputActive() bool {
	return u.form != nil || u.pickerActive || u.helpActive
}

func (u *UI) quit(*gocui.Gui, *gocui.View) error {
	return gocui.ErrQuit
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := min(64, maxX-2)
	height := min(20, maxY-2)
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewHelp, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	view.Title = "Help"
	view.Clear()
	fmt.Fprint(view, helpText())
	_, _ = gui.SetViewOnTop(viewHelp)
	return nil
}

func helpText() string {
	return strings.Join([]string{
		"Cards:",
		"  a add | e edit | d delete | x toggle done",
		"  J/K move within column | H/L move across columns",
		"",
		"Columns:",
		"  A add | E edit | D delete (items go with it)",
		"  </> move column left/right",
		"",
		"Boards:",
		"  b board picker | n new board | t title/tags",
		"  picker: enter open | d delete | X reset everything (press twice)",
		"",
		"Other:",
		"  h/l focus column | j/k select card | r reload",
		"  ? help | esc close | q quit",
	}, "\n")
}

func applyColumnStyle(view *gocui.View, focused bool) {
	view.Frame = true
	view.Highlight = focused
	view.HighlightInactive = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
		view.TitleColor = gocui.ColorDefault
	}
}

func friendlyError(err error) string {
	var lastContainer board.LastContainerError
	var lastItem board.LastItemError
	switch {
	case errors.As(err, &lastContainer):
		return "a board needs at least one column"
	case errors.As(err, &lastItem):
		return "a board needs at least one card"
	case errors.Is(err, db.ErrStorageUnavailable):
		return "storage unavailable, changes are not being saved"
	case errors.Is(err, db.ErrNotFound):
		return "board no longer exists"
	default:
		return err.Error()
	}
}
