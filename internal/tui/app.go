package tui

import tea "github.com/charmbracelet/bubbletea"

// App is the top-level Bubble Tea model that routes between pages.
type App struct {
	pages  map[string]Page
	order  []string
	active string
	width  int
	height int
}

// NewApp creates a new App with the given pages. The first page is the
// default.
func NewApp(pages ...Page) *App {
	pageMap := make(map[string]Page, len(pages))
	order := make([]string, 0, len(pages))
	for _, p := range pages {
		pageMap[p.ID()] = p
		order = append(order, p.ID())
	}
	a := &App{
		pages: pageMap,
		order: order,
	}
	if len(order) > 0 {
		a.active = order[0]
	}
	return a
}

func (a *App) Init() tea.Cmd {
	if p, ok := a.pages[a.active]; ok {
		return p.Init()
	}
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// WindowSizeMsg is tracked at the app level so every page renders with
	// current dimensions.
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		a.width = wsm.Width
		a.height = wsm.Height
	}

	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+c" {
		return a, tea.Quit
	}

	p, ok := a.pages[a.active]
	if !ok {
		return a, nil
	}

	cmd, nav := p.Update(msg)

	if nav != nil {
		target := nav.PageID
		if target == nextPageID {
			target = a.nextPage()
		}
		if next, exists := a.pages[target]; exists && target != a.active {
			a.active = target
			return a, tea.Batch(cmd, next.Init())
		}
	}

	return a, cmd
}

func (a *App) View() string {
	if p, ok := a.pages[a.active]; ok {
		return p.View(a.width, a.height)
	}
	return "No active page"
}

// nextPageID is a sentinel PageNav target meaning "cycle forward".
const nextPageID = "__next__"

// NavNext requests a switch to the next page in declaration order.
func NavNext() *PageNav { return &PageNav{PageID: nextPageID} }

func (a *App) nextPage() string {
	if len(a.order) == 0 {
		return a.active
	}
	for i, id := range a.order {
		if id == a.active {
			return a.order[(i+1)%len(a.order)]
		}
	}
	return a.order[0]
}
