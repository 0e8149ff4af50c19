package ui

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"shellview/internal/config"
	"shellview/internal/jobs"
	"shellview/internal/keymanager"
	"shellview/internal/shell"
	"shellview/internal/view"
)

// busyDelay is how long a navigation may run before the overlay shows.
const busyDelay = 300 * time.Millisecond

// iconSizes are the zoom steps of Ctrl+Plus and Ctrl+Minus.
var iconSizes = []int{16, 24, 32, 48, 64, 96, 128, 256}

// Browser is the main window: location bar, toolbar, the list and a
// status line. It implements keymanager.ListViewInterface.
type Browser struct {
	window  fyne.Window
	session *view.Session
	host    *ListHost
	km      *keymanager.KeyManager

	pathEntry *PathEntry
	status    *widget.Label
	busy      *BusyOverlay
	listView  *KeySink
	typeAhead *typeAhead

	ctx    context.Context
	cancel context.CancelFunc

	navMu     sync.Mutex
	navCancel context.CancelFunc

	cfg   *config.Config
	saver config.Saver

	unsubscribe func()
	closeOnce   sync.Once
	debugPrint  func(format string, args ...interface{})
}

// BrowserOptions configures NewBrowser.
type BrowserOptions struct {
	Title      string
	Width      int
	Height     int
	DebugPrint func(format string, args ...interface{})
	// Config and Saver, when both set, receive sort, grouping and icon
	// size changes.
	Config *config.Config
	Saver  config.Saver
}

// NewBrowser builds the window around session, which must already be
// attached to host.
func NewBrowser(app fyne.App, session *view.Session, host *ListHost, opts BrowserOptions) *Browser {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Browser{
		window:     app.NewWindow(opts.Title),
		session:    session,
		host:       host,
		km:         keymanager.NewKeyManager(opts.DebugPrint),
		status:     widget.NewLabel(""),
		busy:       NewBusyOverlay(),
		typeAhead:  newTypeAhead(),
		ctx:        ctx,
		cancel:     cancel,
		cfg:        opts.Config,
		saver:      opts.Saver,
		debugPrint: opts.DebugPrint,
	}
	b.km.PushHandler(keymanager.NewListViewKeyHandler(b, opts.DebugPrint))
	b.pathEntry = NewPathEntry(b.submitPath, b.focusList)
	b.listView = NewKeySink(host.Widget(), b.km,
		WithTabCapture(true),
		WithFocusCallback(func(focused bool) {
			if !focused {
				b.typeAhead.reset()
			}
		}),
	)

	host.OnCursorChanged = func(int) {
		b.focusList()
		b.updateStatus()
	}
	host.OnInvoke = func(row int) {
		b.host.SetCursor(row)
		b.InvokeCursor()
	}
	b.unsubscribe = session.Subscribe(b.onSessionEvent)

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.NavigateBackIcon(), b.GoUp),
		widget.NewToolbarAction(theme.ComputerIcon(), b.GoRoot),
		widget.NewToolbarAction(theme.HomeIcon(), func() { b.navigatePath(homeDir()) }),
		widget.NewToolbarAction(theme.ViewRefreshIcon(), b.Refresh),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.FolderNewIcon(), b.NewFolder),
		widget.NewToolbarAction(theme.ListIcon(), b.ShowSortDialog),
		widget.NewToolbarAction(theme.HistoryIcon(), b.ShowJobsDialog),
	)
	content := container.NewBorder(
		container.NewVBox(toolbar, b.pathEntry),
		b.status, nil, nil,
		b.listView,
	)
	b.window.SetContent(container.NewStack(content, b.busy.GetContainer()))
	b.window.Resize(fyne.NewSize(float32(opts.Width), float32(opts.Height)))

	b.window.SetCloseIntercept(func() {
		b.dbg("window close intercepted")
		b.Close()
		b.window.Close()
	})
	if dc, ok := b.window.Canvas().(desktop.Canvas); ok {
		dc.SetOnKeyDown(b.km.HandleKeyDown)
		dc.SetOnKeyUp(b.km.HandleKeyUp)
	}
	b.window.Canvas().SetOnTypedKey(b.km.HandleTypedKey)
	b.window.Canvas().SetOnTypedRune(b.km.HandleTypedRune)
	b.focusList()
	return b
}

func (b *Browser) dbg(format string, args ...interface{}) {
	if b.debugPrint != nil {
		b.debugPrint("ui: "+format, args...)
	}
}

// Window returns the browser window.
func (b *Browser) Window() fyne.Window { return b.window }

// Close stops pending navigations and scroll tracking. The session is
// owned by the caller.
func (b *Browser) Close() {
	b.closeOnce.Do(func() {
		b.cancel()
		b.unsubscribe()
		b.host.Close()
	})
}

func (b *Browser) focusList() {
	b.window.Canvas().Focus(b.listView)
}

func (b *Browser) onSessionEvent(ev view.Event) {
	switch ev.Type {
	case view.EventNavigated:
		folder := ev.Folder
		fyne.Do(func() {
			b.pathEntry.SetLocation(folder.ParsingPath)
			b.window.SetTitle(folder.DisplayName)
			b.host.ResetForNavigation()
			b.updateStatus()
		})
	case view.EventItemUpdated:
		u := ev.Update
		fyne.Do(func() {
			if u.Type == view.Deleted || u.Type == view.Renamed {
				prev := u.Item
				if u.Previous != nil {
					prev = u.Previous
				}
				b.host.Deselect(prev.ID)
			}
			b.updateStatus()
		})
	}
}

func (b *Browser) updateStatus() {
	n := b.session.Len()
	parts := []string{fmt.Sprintf("%d items", n)}
	if sel := len(b.host.selected); sel > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", sel))
	}
	if row := b.host.Cursor(); row >= 0 {
		if groups := b.session.Groups(); len(groups) > 0 {
			if v, ok := b.session.Render(row); ok && v.Group >= 0 && v.Group < len(groups) {
				parts = append(parts, groups[v.Group].Header)
			}
		}
	}
	running := 0
	for _, j := range b.session.Jobs().List() {
		if j.Status == jobs.StatusRunning || j.Status == jobs.StatusPending {
			running++
		}
	}
	if running > 0 {
		parts = append(parts, fmt.Sprintf("%d job(s) running", running))
	}
	b.status.SetText(strings.Join(parts, "  |  "))
}

// navigate runs fn off the fyne goroutine behind the busy overlay. A
// newer navigation cancels the one in flight.
func (b *Browser) navigate(fn func(ctx context.Context) error) {
	ctx, cancel := context.WithCancel(b.ctx)
	b.navMu.Lock()
	if b.navCancel != nil {
		b.navCancel()
	}
	b.navCancel = cancel
	b.navMu.Unlock()

	guard := keymanager.NewBusyKeyHandler(cancel)
	b.km.PushHandler(guard)
	b.busy.Begin("Loading...", busyDelay, cancel)
	go func() {
		err := fn(ctx)
		cancel()
		fyne.Do(func() {
			b.busy.End()
			b.km.RemoveHandler(guard)
			if err != nil {
				b.dbg("navigation failed: %v", err)
				ShowErrorDialog(b.window, err)
			}
			b.focusList()
		})
	}()
}

// NavigateTo shows path; call it on the fyne goroutine.
func (b *Browser) NavigateTo(path string) {
	b.navigatePath(path)
}

func (b *Browser) navigatePath(path string) {
	b.navigate(func(ctx context.Context) error { return b.session.Navigate(ctx, path) })
}

func (b *Browser) submitPath(text string) {
	path := strings.TrimSpace(text)
	if path == "" {
		b.pathEntry.SetText(b.pathEntry.current)
		return
	}
	if strings.HasPrefix(path, "~") {
		path = homeDir() + path[1:]
	}
	b.navigatePath(path)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/"
	}
	return home
}

// keymanager.ListViewInterface

func (b *Browser) CursorRow() int    { return b.host.Cursor() }
func (b *Browser) SetCursor(row int) { b.host.SetCursor(row) }
func (b *Browser) RowCount() int     { return b.session.Len() }

func (b *Browser) ToggleSelected(row int) {
	b.host.ToggleSelected(row)
	b.updateStatus()
}

func (b *Browser) InvokeCursor() {
	row := b.host.Cursor()
	if _, ok := b.session.Item(row); !ok {
		return
	}
	b.navigate(func(ctx context.Context) error { return b.session.Invoke(ctx, row) })
}

// GoUp shows the parent and puts the cursor on the folder we came from.
func (b *Browser) GoUp() {
	from := b.session.Folder()
	b.navigate(func(ctx context.Context) error {
		if err := b.session.Up(ctx); err != nil {
			return err
		}
		if from == nil {
			return nil
		}
		if row, ok := b.session.IndexOf(from.ID); ok {
			fyne.Do(func() { b.host.SetCursor(row) })
		}
		return nil
	})
}

func (b *Browser) GoRoot() {
	b.navigate(b.session.GoRoot)
}

func (b *Browser) Refresh() {
	b.navigate(b.session.Refresh)
}

func (b *Browser) selectionPaths() []string {
	var paths []string
	for _, it := range b.host.Selection() {
		if it.ParsingPath != "" {
			paths = append(paths, it.ParsingPath)
		}
	}
	return paths
}

func (b *Browser) folderPath() string {
	if f := b.session.Folder(); f != nil {
		return f.ParsingPath
	}
	return ""
}

// watch reports a job failure once the job is done.
func (b *Browser) watch(j *jobs.Job) {
	b.updateStatus()
	go func() {
		err := j.Wait()
		fyne.Do(func() {
			b.updateStatus()
			if err != nil {
				ShowErrorDialog(b.window, err)
			}
		})
	}()
}

func (b *Browser) RenameCursor() {
	row := b.host.Cursor()
	it, ok := b.session.Item(row)
	if !ok {
		return
	}
	NewNameDialog("Rename", it.DisplayName, b.km).ShowDialog(b.window, func(name string) {
		j, err := b.session.Rename(row, name)
		if err != nil {
			ShowErrorDialog(b.window, err)
			return
		}
		b.watch(j)
	})
}

func (b *Browser) DeleteSelection(permanent bool) {
	paths := b.selectionPaths()
	if len(paths) == 0 {
		return
	}
	what := fmt.Sprintf("%d items", len(paths))
	if len(paths) == 1 {
		what = paths[0]
	}
	title, msg := "Move to trash", "Move "+what+" to the trash?"
	if permanent {
		title, msg = "Delete permanently", "Permanently delete "+what+"? This cannot be undone."
	}
	NewConfirmDialog(b.km).ShowDialog(b.window, title, msg, func(ok bool) {
		if ok {
			b.watch(b.session.Delete(paths, !permanent))
		}
		b.focusList()
	})
}

func (b *Browser) CopySelection() { b.copyMove(shell.OpCopy) }
func (b *Browser) MoveSelection() { b.copyMove(shell.OpMove) }

func (b *Browser) copyMove(op shell.OpKind) {
	paths := b.selectionPaths()
	if len(paths) == 0 {
		return
	}
	NewCopyMoveDialog(op, paths, b.folderPath(), b.km).ShowDialog(b.window, func(dest string) {
		if op == shell.OpMove {
			b.watch(b.session.Move(paths, dest))
		} else {
			b.watch(b.session.Copy(paths, dest))
		}
	})
}

func (b *Browser) NewFolder() {
	NewNameDialog("New folder", "", b.km).ShowDialog(b.window, func(name string) {
		j, err := b.session.NewFolder(name)
		if err != nil {
			ShowErrorDialog(b.window, err)
			return
		}
		b.watch(j)
	})
}

func (b *Browser) ToggleHidden() {
	show := !b.session.ShowHidden()
	b.navigate(func(ctx context.Context) error { return b.session.SetShowHidden(ctx, show) })
}

func (b *Browser) ZoomIcons(delta int) {
	cur := b.session.IconSize()
	i, found := slices.BinarySearch(iconSizes, cur)
	switch {
	case found:
		i += delta
	case delta < 0:
		// i is the next larger size
		i--
	}
	i = max(0, min(i, len(iconSizes)-1))
	if iconSizes[i] != cur {
		b.host.SetIconSize(iconSizes[i])
		b.saveView()
	}
}

// saveView writes the current sort, grouping and icon size back to the
// configuration file.
func (b *Browser) saveView() {
	if b.cfg == nil || b.saver == nil {
		return
	}
	sort := b.session.SortSpec()
	b.cfg.View.SetSort(sort.Column, sort.Descending)
	g, ok := b.session.Grouping()
	b.cfg.View.SetGrouping(g.Column, g.Reversed, ok)
	b.cfg.View.IconSize = b.session.IconSize()
	if err := b.saver.Save(b.cfg); err != nil {
		b.dbg("saving view settings: %v", err)
	}
}

func (b *Browser) ShowSortDialog() {
	current := SortSettings{Sort: b.session.SortSpec()}
	if g, ok := b.session.Grouping(); ok {
		current.Grouping = &g
	}
	NewSortDialog(b.session.Columns(), current, b.km).ShowDialog(b.window, func(s SortSettings) {
		b.session.SetSortColumn(s.Sort.Column, s.Sort.Descending)
		if s.Grouping != nil {
			b.session.SetGrouping(s.Grouping.Column, s.Grouping.Reversed)
		} else {
			b.session.ClearGrouping()
		}
		b.saveView()
		b.updateStatus()
	})
}

func (b *Browser) ShowJobsDialog() {
	NewJobsDialog(b.session.Jobs(), b.km, b.debugPrint).ShowDialog(b.window)
}

func (b *Browser) TypeAhead(r rune) {
	row := b.typeAhead.next(r, b.host.Cursor(), b.session.Len(), func(row int) string {
		if it, ok := b.session.Item(row); ok {
			return it.DisplayName
		}
		return ""
	})
	if row >= 0 {
		b.host.SetCursor(row)
	}
}
