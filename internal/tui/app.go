package tui

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"shelflife/internal/client"
	"shelflife/internal/recognition"
	"shelflife/internal/service"
)

// successFlashDelay is how long the "Saved." state shows before the form
// hands back to the list.
const successFlashDelay = 600 * time.Millisecond

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirmDelete
	modePhotoPath
)

type (
	streamStartedMsg struct{ snapshots <-chan []*service.ProductView }
	snapshotMsg      struct{ products []*service.ProductView }
	streamClosedMsg  struct{}
	saveResultMsg    struct{ err error }
	deleteResultMsg  struct{ err error }
	formDoneMsg      struct{}
	errMsg           struct{ err error }
)

// recognizeResultMsg carries the merged prefill back into the form.
type recognizeResultMsg struct {
	brand string
	name  string
	err   error
}

// App is the root model. It owns the API client, the live stream, and the
// switch between the list and the form.
type App struct {
	api    *client.Client
	styles Styles

	mode mode
	list ListModel
	form FormModel

	photoInput textinput.Model

	snapshots <-chan []*service.ProductView
	statusErr string

	confirmID    string
	confirmLabel string
}

func NewApp(api *client.Client, policy Policy) App {
	photo := textinput.New()
	photo.Prompt = "Photo path: "
	photo.Placeholder = "/path/to/photo.jpg"

	return App{
		api:        api,
		styles:     DefaultStyles(),
		list:       NewListModel(),
		form:       NewFormModel(policy),
		photoInput: photo,
	}
}

func (a App) Init() tea.Cmd {
	return a.connectStream()
}

func (a App) connectStream() tea.Cmd {
	return func() tea.Msg {
		snapshots, err := a.api.Stream(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return streamStartedMsg{snapshots}
	}
}

func waitForSnapshot(snapshots <-chan []*service.ProductView) tea.Cmd {
	return func() tea.Msg {
		products, open := <-snapshots
		if !open {
			return streamClosedMsg{}
		}
		return snapshotMsg{products}
	}
}

func (a App) saveCmd() tea.Cmd {
	input := a.form.Input()
	id := a.form.EditingID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var err error
		if id == "" {
			_, err = a.api.Create(ctx, input)
		} else {
			_, err = a.api.Update(ctx, id, input)
		}
		return saveResultMsg{err}
	}
}

func (a App) deleteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return deleteResultMsg{a.api.Delete(ctx, id)}
	}
}

func (a App) recognizeCmd(path string) tea.Cmd {
	draft := a.form.Draft()
	return func() tea.Msg {
		image, err := os.ReadFile(path)
		if err != nil {
			return recognizeResultMsg{err: fmt.Errorf("failed to read photo: %w", err)}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		result, err := a.api.Recognize(ctx, image, http.DetectContentType(image), draft)
		if err != nil {
			return recognizeResultMsg{err: err}
		}
		return recognizeResultMsg{brand: result.Brand, name: result.Name}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case streamStartedMsg:
		a.snapshots = msg.snapshots
		a.statusErr = ""
		return a, waitForSnapshot(a.snapshots)

	case snapshotMsg:
		a.list.SetProducts(msg.products)
		return a, waitForSnapshot(a.snapshots)

	case streamClosedMsg:
		// Reconnect after a beat rather than spinning.
		a.statusErr = "connection lost, reconnecting..."
		return a, tea.Tick(2*time.Second, func(time.Time) tea.Msg {
			return a.connectStream()()
		})

	case errMsg:
		a.statusErr = msg.err.Error()
		return a, tea.Tick(2*time.Second, func(time.Time) tea.Msg {
			return a.connectStream()()
		})

	case saveResultMsg:
		if msg.err != nil {
			a.form.SubmitFailed(msg.err)
			return a, nil
		}
		a.form.SubmitSucceeded()
		return a, tea.Tick(successFlashDelay, func(time.Time) tea.Msg {
			return formDoneMsg{}
		})

	case formDoneMsg:
		a.mode = modeList
		a.form.Reset()
		return a, nil

	case deleteResultMsg:
		if msg.err != nil {
			a.statusErr = msg.err.Error()
		}
		a.mode = modeList
		return a, nil

	case recognizeResultMsg:
		if msg.err != nil {
			a.form.RecognitionFailed()
			a.statusErr = msg.err.Error()
			return a, nil
		}
		a.form.FinishRecognition(recognition.Result{Brand: msg.brand, Name: msg.name})
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a.routeToMode(msg)
}

func (a App) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.mode {
	case modeList:
		switch key.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		case "up", "k":
			a.list.MoveUp()
		case "down", "j":
			a.list.MoveDown()
		case "n":
			a.form.Reset()
			a.mode = modeForm
		case "enter":
			if selected := a.list.Selected(); selected != nil {
				a.form.LoadProduct(&selected.Product)
				a.mode = modeForm
			}
		case "d":
			if selected := a.list.Selected(); selected != nil {
				a.confirmID = selected.ID
				a.confirmLabel = selected.Brand + " " + selected.Name
				a.mode = modeConfirmDelete
			}
		}
		return a, nil

	case modeConfirmDelete:
		// Only an explicit "y" deletes; anything else backs out silently.
		if key.String() == "y" {
			return a, a.deleteCmd(a.confirmID)
		}
		a.mode = modeList
		return a, nil

	case modePhotoPath:
		switch key.String() {
		case "esc":
			a.mode = modeForm
			return a, nil
		case "enter":
			path := a.photoInput.Value()
			a.photoInput.SetValue("")
			a.mode = modeForm
			if path == "" || !a.form.BeginRecognition() {
				return a, nil
			}
			return a, a.recognizeCmd(path)
		}
		var cmd tea.Cmd
		a.photoInput, cmd = a.photoInput.Update(key)
		return a, cmd

	case modeForm:
		switch key.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "esc":
			// Cancel drops the draft without any prompt.
			a.mode = modeList
			a.form.Reset()
			return a, nil
		case "enter":
			if a.form.BeginSubmit() {
				return a, a.saveCmd()
			}
			return a, nil
		case "ctrl+r":
			if a.form.CanRecognize() {
				a.photoInput.Focus()
				a.mode = modePhotoPath
			}
			return a, nil
		}
	}

	return a.routeToMode(key)
}

func (a App) routeToMode(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.mode == modeForm {
		var cmd tea.Cmd
		a.form, cmd = a.form.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) View() string {
	var body string
	switch a.mode {
	case modeForm:
		body = a.form.View()
	case modeConfirmDelete:
		body = a.styles.Error.Render(fmt.Sprintf("Delete %q? (y to confirm, any other key to cancel)", a.confirmLabel))
	case modePhotoPath:
		body = a.photoInput.View() + "\n" + a.styles.Help.Render("enter recognize · esc back")
	default:
		body = a.list.View()
	}

	if a.statusErr != "" {
		body += "\n" + a.styles.Error.Render(a.statusErr)
	}
	return body
}
