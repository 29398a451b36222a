package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"

	"github.com/Joseda-hg/obracrm/internal/catalog"
	"github.com/Joseda-hg/obracrm/internal/db"
	"github.com/Joseda-hg/obracrm/internal/model"
	"github.com/Joseda-hg/obracrm/internal/view"
)

const (
	viewHeader  = "header"
	viewFooter  = "footer"
	viewRecords = "records"
	viewFacets  = "facets"
	viewSummary = "summary"
	viewDetail  = "detail"
	viewPrompt  = "prompt"
	viewForm    = "form"
	viewHelp    = "help"
)

const (
	promptSearch = "search"
	promptSave   = "save"
)

var groupCycle = []string{"", "none", "date", "status", "category", "priority"}

var sortCycle = []model.FieldID{"", model.FieldDueAt, model.FieldPriority, model.FieldTitle, model.FieldAmount, model.FieldCreatedAt}

type Options struct {
	Location *time.Location
	PageSize int
	Kind     model.Kind
	Now      func() time.Time
}

type UI struct {
	store    *db.Store
	catalog  *catalog.Catalog
	composer *view.Composer
	gui      *gocui.Gui
	opts     Options

	kind       model.Kind
	state      model.ViewState
	activeView *model.SavedView

	records []model.Record
	result  view.Result
	rows    []view.Row
	lines   []listLine
	facets  []facetEntry
	history []model.HistoryEntry

	selectedRow   int
	selectedFacet int
	focus         string

	prompt     string
	form       *formState
	formEditor *formEditor
	helpActive bool
	status     string
}

type formState struct {
	recordID string
	fields   []formField
	index    int
}

type formEditor struct {
	ui *UI
}

func newUI(store *db.Store, cat *catalog.Catalog, opts Options) *UI {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	kind := opts.Kind
	if kind == "" {
		kind = model.KindTask
	}
	ui := &UI{
		store:    store,
		catalog:  cat,
		composer: view.NewComposer(cat, store),
		opts:     opts,
		kind:     kind,
		state:    model.ViewState{PageSize: opts.PageSize},
		focus:    viewRecords,
	}
	ui.formEditor = &formEditor{ui: ui}
	return ui
}

func Run(store *db.Store, cat *catalog.Catalog, opts Options) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := newUI(store, cat, opts)
	ui.gui = gui
	gui.Mouse = true

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}
	if err := ui.loadRecords(); err != nil {
		return err
	}

	if err := gui.MainLoop(); err != nil && !goerrors.Is(err, gocui.ErrQuit) {
		return err
	}

	return nil
}

type binding struct {
	view    string
	key     any
	handler func(*gocui.Gui, *gocui.View) error
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	bindings := []binding{
		{"", gocui.KeyCtrlC, u.quit},
		{"", 'q', u.quit},
		{"", 'r', u.reload},
		{"", 'g', u.clearFilters},
		{"", '/', u.startSearch},
		{"", '?', u.toggleHelp},
		{"", gocui.KeyTab, u.switchFocus},
		{"", '1', u.focusRecords},
		{"", '2', u.focusFacets},
		{"", '3', u.focusSummary},
		{"", '4', u.focusDetail},
		{"", ']', u.nextKind},
		{"", '[', u.prevKind},
		{"", 'b', u.cycleGroup},
		{"", 's', u.cycleSort},
		{"", 'S', u.toggleSortDirection},
		{"", 'n', u.nextPage},
		{"", 'p', u.prevPage},
		{"", 'v', u.cycleSavedView},
		{"", 'w', u.startSaveView},
		{"", 'a', u.addRecord},
		{"", 'e', u.editRecord},
		{"", 'x', u.completeRecord},
		{"", 'o', u.reopenRecord},
		{"", 'm', u.markRead},
		{"", 'd', u.deleteRecord},
		{viewFacets, gocui.KeySpace, u.toggleFacetFilter},
		{viewFacets, gocui.KeyEnter, u.toggleFacetFilter},
		{viewPrompt, gocui.KeyEnter, u.submitPrompt},
		{viewPrompt, gocui.KeyEsc, u.cancelPrompt},
		{viewForm, gocui.KeyEnter, u.submitForm},
		{viewForm, gocui.KeyTab, u.nextFormField},
		{viewForm, gocui.KeyBacktab, u.prevFormField},
		{viewForm, gocui.KeyArrowDown, u.nextFormField},
		{viewForm, gocui.KeyArrowUp, u.prevFormField},
		{viewForm, gocui.KeyEsc, u.cancelForm},
		{viewHelp, gocui.KeyEsc, u.closeHelp},
		{viewHelp, 'q', u.closeHelp},
		{viewHelp, '?', u.closeHelp},
	}
	for _, name := range []string{viewRecords, viewFacets} {
		bindings = append(bindings,
			binding{name, gocui.KeyArrowDown, u.moveDown},
			binding{name, 'j', u.moveDown},
			binding{name, gocui.KeyArrowUp, u.moveUp},
			binding{name, 'k', u.moveUp},
		)
	}

	for _, b := range bindings {
		if err := gui.SetKeybinding(b.view, b.key, gocui.ModNone, b.handler); err != nil {
			return err
		}
	}

	for _, name := range []string{viewRecords, viewFacets} {
		name := name
		if err := gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: name, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
			return u.onListClick(gui, name, opts)
		}}); err != nil {
			return err
		}
	}
	return u.bindMouseScroll(gui)
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.Wrap = true
	headerView.FgColor = gocui.ColorDefault
	u.renderHeader(headerView)

	footerY1 := max(maxY-2, 1)
	footerY0 := max(footerY1-2, 1)
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	footerView.BgColor = gocui.ColorDefault
	u.renderFooter(footerView)

	bodyTop := 2
	bodyBottom := footerY0 - 1
	if bodyBottom < bodyTop {
		return nil
	}

	panes := computeLayout(maxX, bodyBottom-bodyTop+1)
	leftX1 := panes.leftWidth - 1
	rightX0 := min(leftX1+1, maxX-1)
	rightX1 := maxX - 1

	recordsY1 := bodyTop + panes.recordsHeight - 1
	facetsY0 := recordsY1 + 1
	summaryY1 := bodyTop + panes.summaryHeight - 1
	detailY0 := summaryY1 + 1

	recordsView, err := gui.SetView(viewRecords, 0, bodyTop, leftX1, recordsY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	recordsView.Title = "1 " + u.kind.Label()
	applyViewStyle(recordsView, u.focus == viewRecords)
	u.renderRecords(recordsView)

	facetsView, err := gui.SetView(viewFacets, 0, facetsY0, leftX1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		facetsView.Title = "2 Filtros"
	}
	applyViewStyle(facetsView, u.focus == viewFacets)
	u.renderFacets(facetsView)

	summaryView, err := gui.SetView(viewSummary, rightX0, bodyTop, rightX1, summaryY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		summaryView.Title = "3 Resumen"
	}
	applyViewStyle(summaryView, u.focus == viewSummary)
	summaryView.Clear()
	fmt.Fprint(summaryView, strings.Join(formatSummaryLines(u.result), "\n"))

	detailView, err := gui.SetView(viewDetail, rightX0, detailY0, rightX1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		detailView.Title = "4 Detalle"
		detailView.Wrap = true
	}
	applyViewStyle(detailView, u.focus == viewDetail)
	u.renderDetail(detailView)

	_, _ = gui.SetViewOnTop(viewHeader)
	_, _ = gui.SetViewOnTop(viewFooter)

	if u.prompt != "" {
		if err := u.showPrompt(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewPrompt)
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
		_, _ = gui.SetCurrentView(u.focus)
	}

	gui.Cursor = u.prompt != "" || u.form != nil

	return nil
}

type paneLayout struct {
	leftWidth     int
	recordsHeight int
	summaryHeight int
}

func computeLayout(width, height int) paneLayout {
	safeWidth := max(width-2, 20)
	safeHeight := max(height, 8)

	leftWidth := safeWidth * 3 / 5
	if leftWidth < 30 {
		leftWidth = 30
	}
	if leftWidth > safeWidth-18 {
		leftWidth = safeWidth / 2
	}

	recordsHeight := max(int(float64(safeHeight)*0.65), 4)
	summaryHeight := max(int(float64(safeHeight)*0.45), 4)

	return paneLayout{
		leftWidth:     leftWidth,
		recordsHeight: recordsHeight,
		summaryHeight: summaryHeight,
	}
}

func (u *UI) now() time.Time {
	return u.opts.Now().In(u.opts.Location)
}

// loadRecords reads the current kind from the store and recomposes the page.
func (u *UI) loadRecords() error {
	records, err := u.store.ListRecords(context.Background(), u.kind)
	if err != nil {
		return err
	}
	u.records = records
	u.recompose()
	return u.loadHistory()
}

func (u *UI) recompose() {
	u.result = u.composer.Compose(u.kind, u.records, u.state, u.now())
	u.state.Page = u.result.Page.Page
	u.rows, u.lines = flattenSections(u.result.Sections)
	u.facets = buildFacets(u.result.Fields, u.records)

	if u.selectedRow >= len(u.rows) {
		u.selectedRow = max(len(u.rows)-1, 0)
	}
	if u.selectedFacet >= len(u.facets) {
		u.selectedFacet = max(len(u.facets)-1, 0)
	}
}

func (u *UI) loadHistory() error {
	selected := u.selectedRecord()
	if selected == nil {
		u.history = nil
		return nil
	}

	history, err := u.store.ListHistory(context.Background(), selected.ID)
	if err != nil {
		return err
	}
	u.history = history
	return nil
}

func (u *UI) renderHeader(v *gocui.View) {
	v.Clear()
	search := strings.TrimSpace(u.state.Search)
	if search == "" {
		search = "/ para buscar"
	}

	viewLabel := "ninguna"
	if u.activeView != nil {
		viewLabel = u.activeView.Name
	}

	active := make([]string, 0, len(u.result.Active))
	for _, filter := range u.result.Active {
		active = append(active, fmt.Sprintf("%s=%s", filter.Label, strings.Join(filter.Values, "..")))
	}
	filters := "ninguno"
	if len(active) > 0 {
		filters = strings.Join(active, ", ")
	}

	sortLabel := "original"
	if u.state.SortBy != "" {
		sortLabel = string(u.state.SortBy)
		if u.state.SortDesc {
			sortLabel += " desc"
		}
	}

	fmt.Fprintf(v, "%s | Buscar: %s | Vista: %s | Agrupar: %s | Orden: %s | Página %d/%d\nFiltros: %s",
		u.kind.Label(), search, viewLabel, u.result.GroupBy, sortLabel, u.result.Page.Page+1, u.result.Page.Pages, filters)
}

func (u *UI) renderFooter(v *gocui.View) {
	v.Clear()
	v.SetOrigin(0, 0)
	v.SetCursor(0, 0)

	fmt.Fprintln(v, "a nuevo | e editar | x completar | o reabrir | m leída | d eliminar | [ ] tipo | b agrupar | s/S orden | n/p página")
	fmt.Fprintln(v, "/ buscar | espacio filtro | g limpiar | v vistas | w guardar vista | tab panel | 1-4 paneles | ? ayuda | q salir")
	if u.status != "" {
		fmt.Fprint(v, u.status)
	}
}

func (u *UI) renderRecords(v *gocui.View) {
	v.Clear()
	cursorY := 0
	for i, line := range u.lines {
		if line.row < 0 {
			fmt.Fprintln(v, line.heading)
			continue
		}
		prefix := " "
		if line.row == u.selectedRow {
			cursorY = i
			if u.focus == viewRecords {
				prefix = ">"
			} else {
				prefix = "*"
			}
		}
		fmt.Fprintf(v, "%s %s\n", prefix, formatRowSummary(u.rows[line.row]))
	}
	if len(u.rows) == 0 {
		fmt.Fprint(v, "  Sin resultados")
	}
	if u.focus == viewRecords {
		v.SetCursor(0, cursorY)
	}
}

func (u *UI) renderFacets(v *gocui.View) {
	v.Clear()
	for i, entry := range u.facets {
		prefix := " "
		if i == u.selectedFacet {
			prefix = ">"
		}
		marker := " "
		if isFacetActive(u.state, entry) {
			marker = "x"
		}
		fmt.Fprintf(v, "%s [%s] %s: %s (%d)\n", prefix, marker, entry.FieldLabel, entry.Label, entry.Count)
	}
	if u.focus == viewFacets {
		v.SetCursor(0, min(u.selectedFacet, max(len(u.facets)-1, 0)))
	}
}

func (u *UI) renderDetail(v *gocui.View) {
	v.Clear()
	row := u.selectedRow
	if row < 0 || row >= len(u.rows) {
		fmt.Fprint(v, "Ningún registro seleccionado")
		return
	}
	selected := u.rows[row]

	lines := []string{selected.Title}
	add := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", label, value))
		}
	}
	add("Estado", selected.StatusLabel)
	add("Prioridad", selected.PriorityLabel)
	add("Categoría", selected.Category)
	add("Monto", selected.AmountText)
	if selected.DueLabel != "" {
		due := selected.DueLabel
		if selected.Overdue {
			due += " (vencida)"
		}
		add("Vence", due)
	}
	add("Fecha", selected.Age)
	add("Teléfono", selected.PhoneText)
	if selected.Assignee != nil {
		add("Responsable", selected.Assignee.Name)
	}
	if selected.Client != nil {
		add("Cliente", selected.Client.Name)
	}
	if selected.Project != nil {
		add("Proyecto", selected.Project.Name)
	}
	add("Etiquetas", strings.Join(selected.Tags, ", "))
	if selected.Description != "" {
		lines = append(lines, "", selected.Description)
	}

	if len(u.history) > 0 {
		lines = append(lines, "", "Historial:")
		for _, entry := range u.history {
			lines = append(lines, fmt.Sprintf("  %s | %s | %s", entry.CreatedAt.In(u.opts.Location).Format("2006-01-02 15:04"), entry.EventType, entry.Details))
		}
	}

	fmt.Fprint(v, strings.Join(lines, "\n"))
}

func (u *UI) onListClick(gui *gocui.Gui, viewName string, opts gocui.ViewMouseBindingOpts) error {
	if u.inputActive() {
		return nil
	}
	v, err := gui.View(viewName)
	if err != nil {
		return nil
	}

	_, y0, _, _ := v.Dimensions()
	_, oy := v.Origin()
	line := max(opts.Y-y0-1+oy, 0)

	switch viewName {
	case viewRecords:
		if line < len(u.lines) && u.lines[line].row >= 0 {
			u.selectedRow = u.lines[line].row
		}
		if err := u.loadHistory(); err != nil {
			return err
		}
		return u.setFocus(gui, viewRecords)
	case viewFacets:
		u.selectedFacet = min(line, max(len(u.facets)-1, 0))
		return u.setFocus(gui, viewFacets)
	}
	return nil
}

func (u *UI) bindMouseScroll(gui *gocui.Gui) error {
	for _, name := range []string{viewRecords, viewFacets, viewSummary, viewDetail} {
		if err := gui.SetKeybinding(name, gocui.MouseWheelUp, gocui.ModNone, u.scrollUp); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, gocui.MouseWheelDown, gocui.ModNone, u.scrollDown); err != nil {
			return err
		}
	}
	return nil
}

func (u *UI) scrollUp(gui *gocui.Gui, v *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if v == nil {
		v = gui.CurrentView()
	}
	if v != nil {
		v.ScrollUp(1)
	}
	return nil
}

func (u *UI) scrollDown(gui *gocui.Gui, v *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if v == nil {
		v = gui.CurrentView()
	}
	if v != nil {
		v.ScrollDown(1)
	}
	return nil
}

func (u *UI) selectedRecord() *view.Row {
	if u.selectedRow >= 0 && u.selectedRow < len(u.rows) {
		return &u.rows[u.selectedRow]
	}
	return nil
}

func (u *UI) switchFocus(gui *gocui.Gui, _ *gocui.View) error {
	switch u.focus {
	case viewRecords:
		return u.setFocus(gui, viewFacets)
	case viewFacets:
		return u.setFocus(gui, viewSummary)
	case viewSummary:
		return u.setFocus(gui, viewDetail)
	}
	return u.setFocus(gui, viewRecords)
}

func (u *UI) focusRecords(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewRecords)
}

func (u *UI) focusFacets(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewFacets)
}

func (u *UI) focusSummary(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewSummary)
}

func (u *UI) focusDetail(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewDetail)
}

func (u *UI) setFocus(gui *gocui.Gui, name string) error {
	if u.inputActive() {
		return nil
	}
	u.focus = name
	if gui != nil {
		_, _ = gui.SetCurrentView(name)
	}
	return nil
}

func (u *UI) moveDown(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.focus {
	case viewRecords:
		if u.selectedRow < len(u.rows)-1 {
			u.selectedRow++
			return u.loadHistory()
		}
	case viewFacets:
		if u.selectedFacet < len(u.facets)-1 {
			u.selectedFacet++
		}
	}
	return nil
}

func (u *UI) moveUp(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.focus {
	case viewRecords:
		if u.selectedRow > 0 {
			u.selectedRow--
			return u.loadHistory()
		}
	case viewFacets:
		if u.selectedFacet > 0 {
			u.selectedFacet--
		}
	}
	return nil
}

func (u *UI) reload(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.status = ""
	return u.loadRecords()
}

// applyState swaps the page state and recomposes without touching the store.
func (u *UI) applyState(state model.ViewState) error {
	u.state = state
	u.recompose()
	return u.loadHistory()
}

func (u *UI) clearFilters(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.activeView = nil
	return u.applyState(model.ViewState{GroupBy: u.state.GroupBy, PageSize: u.opts.PageSize})
}

func (u *UI) nextKind(_ *gocui.Gui, _ *gocui.View) error {
	return u.shiftKind(1)
}

func (u *UI) prevKind(_ *gocui.Gui, _ *gocui.View) error {
	return u.shiftKind(-1)
}

func (u *UI) shiftKind(delta int) error {
	if u.inputActive() {
		return nil
	}
	kinds := model.Kinds()
	index := 0
	for i, kind := range kinds {
		if kind == u.kind {
			index = i
			break
		}
	}
	u.kind = kinds[(index+delta+len(kinds))%len(kinds)]
	u.state = model.ViewState{PageSize: u.opts.PageSize}
	u.activeView = nil
	u.selectedRow = 0
	u.selectedFacet = 0
	u.status = ""
	return u.loadRecords()
}

func (u *UI) cycleGroup(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	state := u.state
	state.GroupBy = cycleValue(groupCycle, state.GroupBy, 1)
	return u.applyState(state)
}

func (u *UI) cycleSort(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	order := make([]string, 0, len(sortCycle))
	for _, field := range sortCycle {
		order = append(order, string(field))
	}
	state := u.state
	state.SortBy = model.FieldID(cycleValue(order, string(state.SortBy), 1))
	return u.applyState(state)
}

func (u *UI) toggleSortDirection(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	state := u.state
	state.SortDesc = !state.SortDesc
	return u.applyState(state)
}

func (u *UI) nextPage(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.state.Page >= u.result.Page.Pages-1 {
		return nil
	}
	state := u.state
	state.Page++
	u.selectedRow = 0
	return u.applyState(state)
}

func (u *UI) prevPage(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.state.Page == 0 {
		return nil
	}
	state := u.state
	state.Page--
	u.selectedRow = 0
	return u.applyState(state)
}

func (u *UI) toggleFacetFilter(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.focus != viewFacets {
		return nil
	}
	if u.selectedFacet < 0 || u.selectedFacet >= len(u.facets) {
		return nil
	}
	return u.applyState(toggleFacet(u.state, u.facets[u.selectedFacet]))
}

func (u *UI) cycleSavedView(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	views, err := u.store.ListViews(context.Background(), u.kind)
	if err != nil {
		u.status = err.Error()
		return nil
	}
	if len(views) == 0 {
		u.status = "No hay vistas guardadas"
		return nil
	}

	next := 0
	if u.activeView != nil {
		for i, saved := range views {
			if saved.ID == u.activeView.ID {
				next = (i + 1) % len(views)
				break
			}
		}
	}
	selected := views[next]
	u.activeView = &selected
	u.status = ""
	return u.applyState(selected.State)
}

func (u *UI) performOnSelected(action view.Action) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedRecord()
	if selected == nil {
		return nil
	}
	if err := u.composer.Perform(context.Background(), action, selected.ID); err != nil {
		u.status = err.Error()
		return nil
	}
	u.status = ""
	return u.loadRecords()
}

func (u *UI) completeRecord(_ *gocui.Gui, _ *gocui.View) error {
	return u.performOnSelected(view.ActionComplete)
}

func (u *UI) reopenRecord(_ *gocui.Gui, _ *gocui.View) error {
	return u.performOnSelected(view.ActionReopen)
}

func (u *UI) markRead(_ *gocui.Gui, _ *gocui.View) error {
	return u.performOnSelected(view.ActionMarkRead)
}

func (u *UI) deleteRecord(_ *gocui.Gui, _ *gocui.View) error {
	return u.performOnSelected(view.ActionDelete)
}

func (u *UI) startSearch(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.prompt = promptSearch
	return nil
}

func (u *UI) startSaveView(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.prompt = promptSave
	return nil
}

func (u *UI) showPrompt(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(30, maxX/2)
	height := 3
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	v, err := gui.SetView(viewPrompt, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		v.Wrap = true
		v.Clear()
		switch u.prompt {
		case promptSave:
			v.Title = "Guardar vista como"
			if u.activeView != nil {
				fmt.Fprint(v, u.activeView.Name)
			}
		default:
			v.Title = "Buscar"
			fmt.Fprint(v, u.state.Search)
		}
	}
	v.Editable = true
	v.Editor = gocui.DefaultEditor
	_, _ = gui.SetCurrentView(viewPrompt)
	return nil
}

func (u *UI) submitPrompt(gui *gocui.Gui, v *gocui.View) error {
	value := ""
	if v != nil {
		value = strings.TrimSpace(v.Buffer())
	}
	prompt := u.prompt
	u.closePrompt(gui)
	return u.applyPrompt(prompt, value)
}

func (u *UI) applyPrompt(prompt, value string) error {
	switch prompt {
	case promptSave:
		return u.saveView(value)
	default:
		state := u.state
		state.Search = value
		state.Page = 0
		u.status = ""
		return u.applyState(state)
	}
}

func (u *UI) saveView(name string) error {
	if name == "" {
		return nil
	}
	saved := model.SavedView{Name: name, Kind: u.kind, State: u.state}
	result, err := u.store.SaveView(context.Background(), saved)
	if err != nil {
		u.status = err.Error()
		return nil
	}
	u.activeView = &result
	u.status = fmt.Sprintf("Vista %q guardada", result.Name)
	return nil
}

func (u *UI) cancelPrompt(gui *gocui.Gui, _ *gocui.View) error {
	u.closePrompt(gui)
	return nil
}

func (u *UI) closePrompt(gui *gocui.Gui) {
	u.prompt = ""
	if gui != nil {
		_ = gui.DeleteView(viewPrompt)
		_, _ = gui.SetCurrentView(u.focus)
	}
}

func (u *UI) addRecord(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.form = &formState{fields: buildFormFields(nil)}
	return nil
}

func (u *UI) editRecord(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedRecord()
	if selected == nil {
		return nil
	}
	u.form = &formState{recordID: selected.ID, fields: buildFormFields(&selected.Record)}
	return nil
}

func (u *UI) showForm(gui *gocui.Gui) error {
	if u.form == nil {
		return nil
	}

	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := min(12, max(10, maxY/2))
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	v, err := gui.SetView(viewForm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		v.Wrap = true
	}
	if u.form.recordID != "" {
		v.Title = "Editar registro"
	} else {
		v.Title = "Nuevo registro: " + u.kind.Label()
	}
	v.Editable = true
	v.KeybindOnEdit = true
	v.Editor = u.formEditor
	u.renderForm(v)
	_, _ = gui.SetCurrentView(viewForm)
	return nil
}

func (u *UI) submitForm(gui *gocui.Gui, _ *gocui.View) error {
	if u.form == nil {
		return nil
	}

	input, err := parseFormFields(u.kind, u.form.fields, u.opts.Location)
	if err != nil {
		u.status = err.Error()
		return nil
	}

	ctx := context.Background()
	if u.form.recordID == "" {
		if _, err := u.store.CreateRecord(ctx, input); err != nil {
			u.status = err.Error()
			return nil
		}
	} else {
		existing, err := u.store.GetRecord(ctx, u.form.recordID)
		if err != nil {
			u.status = err.Error()
			return nil
		}
		merged := recordInput(existing)
		merged.Title = input.Title
		merged.Description = input.Description
		merged.Status = input.Status
		merged.Priority = input.Priority
		merged.Category = input.Category
		merged.DueAt = input.DueAt
		merged.Amount = input.Amount
		merged.Tags = input.Tags
		if _, err := u.store.UpdateRecord(ctx, u.form.recordID, merged); err != nil {
			u.status = err.Error()
			return nil
		}
	}

	u.form = nil
	u.status = ""
	if gui != nil {
		_ = gui.DeleteView(viewForm)
		_, _ = gui.SetCurrentView(u.focus)
	}
	return u.loadRecords()
}

func (u *UI) cancelForm(gui *gocui.Gui, _ *gocui.View) error {
	u.form = nil
	if gui != nil {
		_ = gui.DeleteView(viewForm)
		_, _ = gui.SetCurrentView(u.focus)
	}
	return nil
}

func (u *UI) nextFormField(_ *gocui.Gui, v *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index < len(u.form.fields)-1 {
		u.form.index++
	}
	u.renderForm(v)
	return nil
}

func (u *UI) prevFormField(_ *gocui.Gui, v *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index > 0 {
		u.form.index--
	}
	u.renderForm(v)
	return nil
}

func (u *UI) renderForm(v *gocui.View) {
	if u.form == nil || v == nil {
		return
	}
	v.Clear()
	for index, field := range u.form.fields {
		prefix := "  "
		if index == u.form.index {
			prefix = "> "
		}
		fmt.Fprintf(v, "%s%s: %s\n", prefix, field.Label, field.Value)
	}
	current := u.form.fields[u.form.index]
	cursorX := len([]rune(current.Label+": ")) + len([]rune(current.Value)) + 2
	v.SetCursor(cursorX, u.form.index)
}

// statusOptions lists the statuses the form cycles through for the current
// kind, taken from its status filter.
func (u *UI) statusOptions() []string {
	field, ok := u.catalog.Field(u.kind, model.FieldStatus)
	if !ok || len(field.Options) == 0 {
		return []string{string(model.StatusPending), string(model.StatusInProgress), string(model.StatusCompleted), string(model.StatusCanceled)}
	}
	options := make([]string, 0, len(field.Options))
	for _, option := range field.Options {
		options = append(options, option.Value)
	}
	return options
}

func (e *formEditor) Edit(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.form == nil || v == nil {
		return false
	}
	field := &ui.form.fields[ui.form.index]

	if isStatusField(field.Label) || isPriorityField(field.Label) {
		order := priorityOrder
		if isStatusField(field.Label) {
			order = ui.statusOptions()
		}
		switch key {
		case gocui.KeyArrowRight, gocui.KeySpace:
			field.Value = cycleValue(order, field.Value, 1)
		case gocui.KeyArrowLeft:
			field.Value = cycleValue(order, field.Value, -1)
		}
		ui.renderForm(v)
		return true
	}

	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(field.Value)
		if len(runes) > 0 {
			field.Value = string(runes[:len(runes)-1])
		}
	case gocui.KeySpace:
		field.Value += " "
	case gocui.KeyCtrlU:
		field.Value = ""
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		field.Value += string(ch)
	}

	ui.renderForm(v)
	return true
}

func (u *UI) toggleHelp(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() && !u.helpActive {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(gui *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	if gui != nil {
		_ = gui.DeleteView(viewHelp)
		_, _ = gui.SetCurrentView(u.focus)
	}
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := 20
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	v, err := gui.SetView(viewHelp, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		v.Title = "Ayuda"
		v.Wrap = true
	}
	v.Clear()
	fmt.Fprint(v, helpText())
	_, _ = gui.SetCurrentView(viewHelp)
	return nil
}

func (u *UI) inputActive() bool {
	return u.prompt != "" || u.form != nil || u.helpActive
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func helpText() string {
	return strings.Join([]string{
		"Navegación:",
		"  Tab cambia de panel | 1 Registros | 2 Filtros | 3 Resumen | 4 Detalle",
		"  j/k o flechas mueven la selección | clic para seleccionar",
		"  [ ] cambia el tipo de registro",
		"",
		"Acciones:",
		"  a nuevo | e editar | x completar | o reabrir | m marcar leída | d eliminar",
		"",
		"Búsqueda y filtros:",
		"  / buscar | espacio o enter activa un filtro (panel Filtros) | g limpiar",
		"  b cambia la agrupación | s cambia el orden | S invierte el orden",
		"  n/p página siguiente/anterior",
		"",
		"Vistas:",
		"  v siguiente vista guardada | w guardar la vista actual",
		"",
		"Otros:",
		"  r recargar | ? ayuda | esc/q cerrar ayuda | q salir",
	}, "\n")
}

func applyViewStyle(v *gocui.View, focused bool) {
	v.Frame = true
	v.Highlight = false
	v.HighlightInactive = false
	v.SelBgColor = gocui.ColorBlue
	v.SelFgColor = gocui.ColorBlack
	v.InactiveViewSelBgColor = gocui.ColorDefault
	if focused {
		v.FrameColor = gocui.ColorCyan
		v.TitleColor = gocui.ColorCyan
	} else {
		v.FrameColor = gocui.ColorDefault
		v.TitleColor = gocui.ColorDefault
	}
}
