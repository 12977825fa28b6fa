package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/floodline/internal/rpc"
	"github.com/matheus3301/floodline/internal/tui/client"
	"github.com/matheus3301/floodline/internal/tui/keys"
	"github.com/matheus3301/floodline/internal/tui/model"
	"github.com/matheus3301/floodline/internal/tui/ui"
	"github.com/matheus3301/floodline/internal/tui/views"
	"github.com/rivo/tview"
)

const (
	pageQueue   = "queue"
	pageCaches  = "caches"
	pageEvents  = "events"
	pageGateway = "gateway"
	pageHelp    = "help"

	refreshInterval = 2 * time.Second
	rpcTimeout      = 10 * time.Second
)

// App is the dashboard shell.
type App struct {
	app      *tview.Application
	theme    *ui.Theme
	pages    *ui.Pages
	body     *tview.Flex
	vm       *model.ViewModel
	registry *keys.Registry
	profile  string

	info      *ui.ProfileInfo
	menu      *ui.Menu
	crumbs    *ui.Crumbs
	prompt    *ui.Prompt
	flashBar  *ui.FlashBar
	statusBar *views.StatusBar

	queueV   *views.QueueView
	cacheV   *views.CacheView
	eventsV  *views.EventsView
	gatewayV *views.GatewayView
	helpV    *views.HelpView

	components map[string]ui.Component
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(c *client.Client, profileName string) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:       tview.NewApplication(),
		theme:     theme,
		pages:     ui.NewPages(),
		vm:        model.NewViewModel(c),
		registry:  keys.NewRegistry(),
		profile:   profileName,
		info:      ui.NewProfileInfo(theme),
		menu:      ui.NewMenu(theme),
		crumbs:    ui.NewCrumbs(theme),
		prompt:    ui.NewPrompt(theme),
		flashBar:  ui.NewFlashBar(theme),
		statusBar: views.NewStatusBar(),
		queueV:    views.NewQueueView(theme),
		cacheV:    views.NewCacheView(theme),
		eventsV:   views.NewEventsView(theme),
		gatewayV:  views.NewGatewayView(theme),
		helpV:     views.NewHelpView(theme),
		ctx:       ctx,
		cancel:    cancel,
	}
	a.components = map[string]ui.Component{
		pageQueue:   a.queueV,
		pageCaches:  a.cacheV,
		pageEvents:  a.eventsV,
		pageGateway: a.gatewayV,
		pageHelp:    a.helpV,
	}

	a.statusBar.SetProfile(profileName)
	a.setupBindings()
	a.setupLayout()
	return a
}

func (a *App) setupBindings() {
	view := func(r rune, page, desc string) *keys.Action {
		return &keys.Action{
			Key: tcell.KeyRune, Rune: r, Description: desc, Visible: true,
			Handler: func() { a.show(page) },
		}
	}
	a.registry.AddGlobal(view('1', pageQueue, "Queue"))
	a.registry.AddGlobal(view('2', pageCaches, "Caches"))
	a.registry.AddGlobal(view('3', pageEvents, "Events"))
	a.registry.AddGlobal(view('4', pageGateway, "Gateway"))
	a.registry.AddGlobal(view('?', pageHelp, "Help"))
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: ':', Description: "Command", Visible: true,
		Handler: func() { a.activatePrompt(ui.PromptCommand) },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 'f', Description: "Flush",
		Handler: a.flush,
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 'o', Description: "Online",
		Handler: a.toggleOnline,
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 'a', Description: "Auto-sync",
		Handler: func() { a.toggleSetting("autoSync") },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 'q', Description: "Quit", Visible: true,
		Handler: a.Stop,
	})

	a.registry.AddView(pageQueue, &keys.Action{
		Key: tcell.KeyRune, Rune: '/', Description: "Filter",
		Handler: func() { a.activatePrompt(ui.PromptFilter) },
	})
	a.registry.AddView(pageCaches, &keys.Action{
		Key: tcell.KeyRune, Rune: 'r', Description: "Refresh manifest", Visible: true,
		Handler: a.refreshManifest,
	})
	a.registry.AddView(pageCaches, &keys.Action{
		Key: tcell.KeyRune, Rune: 'w', Description: "Skip waiting", Visible: true,
		Handler: a.skipWaiting,
	})
	a.registry.AddView(pageCaches, &keys.Action{
		Key: tcell.KeyRune, Rune: 'm', Description: "Map caching", Visible: true,
		Handler: func() { a.toggleSetting("cacheMaps") },
	})
}

func (a *App) setupLayout() {
	logo := ui.NewLogo(a.theme)
	header := tview.NewFlex().
		AddItem(a.info, 0, 2, false).
		AddItem(a.menu, 0, 2, false).
		AddItem(logo, 20, 0, false)

	a.pages.AddPage(pageQueue, a.queueV, true, false)
	a.pages.AddPage(pageCaches, a.cacheV, true, false)
	a.pages.AddPage(pageEvents, a.eventsV, true, false)
	a.pages.AddPage(pageGateway, a.gatewayV, true, false)
	a.pages.AddPage(pageHelp, a.helpV, true, false)
	a.pages.SetOnChange(func(stack []string) {
		a.crumbs.Update(stack)
		a.menu.Update(a.hints())
	})

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.closePrompt()
		if mode == ui.PromptFilter {
			a.queueV.SetFilter(text)
			return
		}
		a.runCommand(ParseCommand(text).Canonical())
	})
	a.prompt.SetOnCancel(a.closePrompt)

	a.body = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 7, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(a.body, true)
	a.pages.Reset(pageQueue)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if _, ok := a.app.GetFocus().(*tview.InputField); ok {
			return event
		}
		if event.Key() == tcell.KeyEscape {
			if a.pages.Depth() > 1 {
				a.pages.Pop()
				a.focusCurrent()
			} else {
				a.queueV.SetFilter("")
			}
			return nil
		}
		if a.registry.HandleEvent(a.pages.Current(), event) {
			return nil
		}
		return event
	})
}

func (a *App) hints() []ui.MenuHint {
	hints := a.registry.Hints(a.pages.Current())
	if c, ok := a.components[a.pages.Current()]; ok {
		hints = append(c.Hints(), hints...)
	}
	return hints
}

// show pushes page unless it is already on top; the queue page resets the stack.
func (a *App) show(page string) {
	switch {
	case page == a.pages.Current():
	case page == pageQueue:
		a.pages.Reset(pageQueue)
	default:
		if c, ok := a.components[a.pages.Current()]; ok {
			c.Stop()
		}
		a.pages.Push(page)
		if c, ok := a.components[page]; ok {
			c.Start()
		}
	}
	a.focusCurrent()
}

func (a *App) focusCurrent() {
	if c, ok := a.components[a.pages.Current()]; ok {
		a.app.SetFocus(c)
	}
}

func (a *App) activatePrompt(mode ui.PromptMode) {
	a.prompt.Activate(mode)
	a.body.AddItem(a.prompt, 3, 0, false)
	a.app.SetFocus(a.prompt)
}

func (a *App) closePrompt() {
	a.body.RemoveItem(a.prompt)
	a.focusCurrent()
}

func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case "quit":
		a.Stop()
	case "help":
		a.show(pageHelp)
	case "flush":
		a.flush()
	case "online", "offline":
		a.setOnline(cmd.Name == "online")
	case "refresh":
		a.refreshManifest()
	case "skip-waiting":
		a.skipWaiting()
	case "push":
		a.async("push", func(ctx context.Context) (string, error) {
			return "Notification pushed", a.vm.Push(ctx, cmd.Args)
		})
	case "queue", "caches", "events", "gateway":
		a.show(cmd.Name)
	default:
		a.vm.Flash.Warn(fmt.Sprintf("unknown command: %s", cmd.Name))
		a.flashBar.Update(a.vm.Flash.GetMessage())
	}
}

// async runs fn off the UI goroutine, flashes its outcome and reloads.
func (a *App) async(what string, fn func(ctx context.Context) (string, error)) {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, rpcTimeout)
		defer cancel()
		msg, err := fn(ctx)
		if err != nil {
			a.vm.Flash.Err(fmt.Errorf("%s: %w", what, err))
		} else if msg != "" {
			a.vm.Flash.Info(msg)
		}
		a.reload()
	}()
}

func (a *App) flush() {
	a.async("flush", func(ctx context.Context) (string, error) {
		res, err := a.vm.Flush(ctx)
		if err != nil {
			return "", err
		}
		return describeFlush(res), nil
	})
}

func (a *App) toggleOnline() {
	a.async("set online", func(ctx context.Context) (string, error) {
		online, err := a.vm.ToggleOnline(ctx)
		if online {
			return "Forced online", err
		}
		return "Forced offline", err
	})
}

func (a *App) setOnline(online bool) {
	if a.vm.GetState().Online == online {
		return
	}
	a.toggleOnline()
}

func (a *App) toggleSetting(name string) {
	a.async("save settings", func(ctx context.Context) (string, error) {
		st, err := a.vm.ToggleSetting(ctx, name)
		return fmt.Sprintf("autoSync=%v cacheMaps=%v", st.AutoSync, st.CacheMaps), err
	})
}

func (a *App) refreshManifest() {
	a.async("refresh manifest", func(ctx context.Context) (string, error) {
		return "Manifest refreshed", a.vm.RefreshManifest(ctx)
	})
}

func (a *App) skipWaiting() {
	a.async("skip waiting", func(ctx context.Context) (string, error) {
		return "Waiting worker activated", a.vm.SkipWaiting(ctx)
	})
}

func describeFlush(res rpc.FlushResult) string {
	switch {
	case res.Coalesced:
		return "Flush already running"
	case res.Skipped != "":
		return "Flush skipped: " + res.Skipped
	default:
		return fmt.Sprintf("Synced %d, retried %d, dropped %d, %d remaining",
			res.Synced, res.Retried, res.Dropped, res.Remaining)
	}
}

func settingsSummary(st rpc.Settings) string {
	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}
	return fmt.Sprintf("auto-sync %s, maps %s", onOff(st.AutoSync), onOff(st.CacheMaps))
}

// reload fetches daemon state and redraws every view.
func (a *App) reload() {
	ctx, cancel := context.WithTimeout(a.ctx, rpcTimeout)
	defer cancel()
	if err := a.vm.Load(ctx); err != nil && a.ctx.Err() == nil {
		a.vm.Flash.Err(err)
	}
	a.app.QueueUpdateDraw(a.render)
}

func (a *App) render() {
	state := a.vm.GetState()
	worker := a.vm.GetWorker()

	a.info.Update(&ui.ProfileData{
		Profile:  a.profile,
		Online:   state.Online,
		Status:   state.Status,
		Pending:  state.Pending,
		Phase:    worker.Phase,
		Version:  worker.Version,
		LastSync: state.LastSync,
	})
	a.queueV.Update(a.vm.GetActions())
	a.cacheV.Update(a.vm.GetCaches(), worker)
	a.eventsV.Update(a.vm.GetEvents())
	a.gatewayV.SetAddr(worker.Gateway)
	a.statusBar.SetSync(state.Online, state.Status, state.Running)
	a.statusBar.SetNote(settingsSummary(a.vm.GetSettings()))
	a.flashBar.Update(a.vm.Flash.GetMessage())
	a.menu.Update(a.hints())
}

// Run starts the TUI application.
func (a *App) Run() error {
	go func() {
		a.reload()
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				a.reload()
			case <-a.ctx.Done():
				return
			}
		}
	}()
	go func() {
		err := a.vm.Watch(a.ctx, func(rpc.Event) {
			a.app.QueueUpdateDraw(func() { a.eventsV.Update(a.vm.GetEvents()) })
		})
		if err != nil && a.ctx.Err() == nil {
			a.vm.Flash.Warn("event stream closed: " + err.Error())
		}
	}()

	return a.app.Run()
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
