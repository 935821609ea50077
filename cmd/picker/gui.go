package picker

import (
	"fmt"
	"sync"
	"text/tabwriter"

	"github.com/buger/goterm"
	"github.com/jroimartin/gocui"

	"github.com/fulcrumhq/skillsync/cmd/util"
	"github.com/fulcrumhq/skillsync/pkg/config"
	"github.com/fulcrumhq/skillsync/pkg/errors"
	skillsync "github.com/fulcrumhq/skillsync/pkg/sync"
)

const (
	headerWidgetName = "header"
	skillsWidgetName = "skills"
	statusWidgetName = "status"
	helpWidgetName   = "help"
)

// run implements the main GUI loop.
func (p *picker) run() error {
	gui, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return err
	}
	defer gui.Close()

	header := &headerWidget{project: p.project, revision: p.revision}
	status := &statusWidget{height: 5}
	help := &helpWidget{}

	// Stream the logrus output to the status view.
	go func() {
		defer util.HandlePanic()
		copyToView(gui, statusWidgetName, p.loggerOut)
	}()

	// SetManager resets the keybindings, so the keys are bound after it.
	gui.SetManager(header, p.table, status, help)

	quit := func(_ *gocui.Gui, _ *gocui.View) error {
		return gocui.ErrQuit
	}
	bindings := map[interface{}]func(*gocui.Gui, *gocui.View) error{
		gocui.KeyArrowUp:   p.table.cursorUp,
		gocui.KeyArrowDown: p.table.cursorDown,
		gocui.KeySpace:     p.table.toggle,
		'a':                p.table.selectAll,
		'n':                p.table.selectPending,
		's':                p.startBatch,
		'q':                quit,
		gocui.KeyCtrlC:     quit,
	}
	for key, handler := range bindings {
		if err := gui.SetKeybinding("", key, gocui.ModNone, handler); err != nil {
			return errors.WithContext(err, "bind GUI keys")
		}
	}

	if err := gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}
	return nil
}

// headerWidget displays the remote the session is pinned to. It's placed at
// the top of the GUI.
type headerWidget struct {
	project  config.Project
	revision string
}

func (w *headerWidget) Layout(g *gocui.Gui) error {
	maxWidth, _ := g.Size()
	height := 1

	v, err := g.SetView(headerWidgetName, 0, 0, maxWidth-1, height+1)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}

	v.Title = "Remote"
	v.Wrap = true
	fmt.Fprintf(v, "Repository: %s/%s    Branch: %s    Revision: %s\n",
		w.project.Owner, w.project.Repo, w.project.Branch,
		abbreviate(w.revision))

	return nil
}

// skillsWidget displays the selectable skills table. It's placed under the
// header.
type skillsWidget struct {
	statuses []skillsync.Status
	selected map[string]bool
	cursor   int
	syncing  bool
	lock     sync.Mutex
}

func (w *skillsWidget) Layout(g *gocui.Gui) error {
	w.lock.Lock()
	defer w.lock.Unlock()

	height := len(w.statuses)
	x1, y1, x2, y2, err := relativeTo(g, headerWidgetName, height)
	if err != nil {
		return err
	}

	v, err := g.SetView(skillsWidgetName, x1, y1, x2, y2)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	v.Title = "Skills"
	v.Wrap = true
	v.Clear()

	out := tabwriter.NewWriter(v, 0, 10, 5, ' ', 0)
	defer out.Flush()

	for i, status := range w.statuses {
		cursor := " "
		if i == w.cursor {
			cursor = ">"
		}

		checkbox := "[ ]"
		if w.selected[status.Skill.Name] {
			checkbox = "[x]"
		}

		local := status.LocalRevision
		if local == "" {
			local = "-"
		}

		fmt.Fprintf(out, "%s %s %s\t%s\t%s\t%s\n", cursor, checkbox,
			status.Skill.Name, w.statusString(status.State), local,
			status.RemoteRevision)
	}

	return nil
}

func (w *skillsWidget) statusString(state skillsync.State) string {
	switch state {
	case skillsync.StateNew:
		return goterm.Color("New", goterm.GREEN)
	case skillsync.StateUpdated:
		return goterm.Color("Updated", goterm.YELLOW)
	default:
		return "Unchanged"
	}
}

func (w *skillsWidget) cursorUp(_ *gocui.Gui, _ *gocui.View) error {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.cursor > 0 {
		w.cursor--
	}
	return nil
}

func (w *skillsWidget) cursorDown(_ *gocui.Gui, _ *gocui.View) error {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.cursor < len(w.statuses)-1 {
		w.cursor++
	}
	return nil
}

// toggle flips whether the skill under the cursor is in the batch.
func (w *skillsWidget) toggle(_ *gocui.Gui, _ *gocui.View) error {
	w.lock.Lock()
	defer w.lock.Unlock()

	if len(w.statuses) == 0 {
		return nil
	}

	name := w.statuses[w.cursor].Skill.Name
	if w.selected[name] {
		delete(w.selected, name)
	} else {
		w.selected[name] = true
	}
	return nil
}

// selectAll puts every skill in the batch.
func (w *skillsWidget) selectAll(_ *gocui.Gui, _ *gocui.View) error {
	w.lock.Lock()
	defer w.lock.Unlock()

	w.selected = map[string]bool{}
	for _, status := range w.statuses {
		w.selected[status.Skill.Name] = true
	}
	return nil
}

// selectPending puts the skills that are new or updated in the batch.
func (w *skillsWidget) selectPending(_ *gocui.Gui, _ *gocui.View) error {
	w.lock.Lock()
	defer w.lock.Unlock()

	w.selected = map[string]bool{}
	for _, status := range w.statuses {
		if status.State != skillsync.StateUnchanged {
			w.selected[status.Skill.Name] = true
		}
	}
	return nil
}

// statusWidget is an empty view that streams sync progress. It's placed
// under the skills table.
type statusWidget struct {
	height int
}

func (w *statusWidget) Layout(g *gocui.Gui) error {
	x1, y1, x2, y2, err := relativeTo(g, skillsWidgetName, w.height)
	if err != nil {
		return err
	}

	v, err := g.SetView(statusWidgetName, x1, y1, x2, y2)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}

	v.Title = "Status"
	v.Wrap = true
	v.Autoscroll = true

	return nil
}

// helpWidget displays the key bindings. It's placed under the status view.
type helpWidget struct{}

func (w *helpWidget) Layout(g *gocui.Gui) error {
	x1, y1, x2, y2, err := relativeTo(g, statusWidgetName, 1)
	if err != nil {
		return err
	}

	v, err := g.SetView(helpWidgetName, x1, y1, x2, y2)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}

	v.Title = "Keys"
	v.Wrap = true
	fmt.Fprintln(v,
		"↑/↓: move    space: toggle    a: select all    n: select pending    s: sync    q: quit")

	return nil
}

// abbreviate shortens a commit SHA to the seven characters the remote's UI
// displays.
func abbreviate(revision string) string {
	if len(revision) < 7 {
		return revision
	}
	return revision[:7]
}

func relativeTo(g *gocui.Gui, view string, height int) (int, int, int, int, error) {
	maxWidth, _ := g.Size()

	_, _, _, origin, err := g.ViewPosition(view)
	if err != nil {
		return 0, 0, 0, 0, err
	}

	top := origin + 1
	return 0, top, maxWidth - 1, top + height + 1, nil
}

// copyToView writes the messages in `stream` into the desired `view` in `gui`.
// It guarantees writes occur in the order of messages in `stream`.
func copyToView(gui *gocui.Gui, view string, stream chanWriter) {
	for b := range stream {
		b := b
		done := make(chan struct{})
		gui.Update(func(gui *gocui.Gui) error {
			defer close(done)
			v, err := gui.View(view)
			if err != nil {
				return err
			}

			if _, err := v.Write(b); err != nil {
				return err
			}
			return nil
		})
		<-done
	}
}
