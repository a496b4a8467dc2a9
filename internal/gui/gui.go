// Package gui provides the single-screen desktop interface.
package gui

import (
	"context"
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/projgen/projgen/internal/config"
	"github.com/projgen/projgen/internal/constants"
	"github.com/projgen/projgen/internal/events"
	"github.com/projgen/projgen/internal/logging"
	"github.com/projgen/projgen/internal/state"
	"github.com/projgen/projgen/internal/workflow"
)

// EnvDebug enables debug logging in GUI mode.
const EnvDebug = "PROJGEN_DEBUG"

// Submitter starts a generation without blocking the caller.
type Submitter interface {
	Submit(sourcePath string) *workflow.Handle
	Stats() workflow.Stats
}

var (
	// guiLogger is the package-level logger for GUI mode
	guiLogger = logging.NewNopLogger()
)

// LaunchGUI opens the main window and blocks until it is closed.
func LaunchGUI(configFile string) error {
	guiLogger = logging.NewLogger("gui")

	if os.Getenv(EnvDebug) != "" {
		logging.SetGlobalLevel(zerolog.DebugLevel)
		guiLogger.Info().Msg("Debug logging enabled via " + EnvDebug)
	} else {
		logging.SetGlobalLevel(zerolog.InfoLevel)
	}

	if logPath, err := guiLogger.EnableFileOutput(config.LogDirectory(), constants.LogFileName); err != nil {
		guiLogger.Warn().Err(err).Msg("File logging disabled")
	} else {
		guiLogger.Debug().Str("path", logPath).Msg("Logging to file")
	}
	defer logging.CloseFileOutput()

	if !HasDisplay() {
		return ErrNoDisplay
	}

	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	bus := events.NewEventBus(constants.EventBusDefaultBuffer)
	defer bus.Close()

	runner, err := workflow.FromConfig(cfg, guiLogger, workflow.WithEventBus(bus))
	if err != nil {
		return fmt.Errorf("failed to create workflow: %w", err)
	}

	myApp := app.NewWithID("io.projgen.desktop")
	myApp.Settings().SetTheme(&projgenTheme{})

	mainWindow := myApp.NewWindow("Project Generator")
	mainWindow.SetMaster()

	ui := NewUI(runner, bus, mainWindow)
	ui.Start()

	mainWindow.SetContent(ui.Build())
	mainWindow.Resize(fyne.NewSize(constants.WindowWidth, constants.WindowHeight))
	mainWindow.CenterOnScreen()
	mainWindow.SetOnClosed(func() {
		if s := runner.Stats(); s.Busy > 0 {
			guiLogger.Warn().Int("running", s.Busy).Msg("Window closed while generations were running")
		}
		ui.Stop()
	})

	mainWindow.ShowAndRun()
	return nil
}

// loadConfig reads configFile, or the default location when empty. A broken
// file falls back to defaults so the window still opens.
func loadConfig(configFile string) (*config.Config, error) {
	path := configFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		guiLogger.Warn().Err(err).Str("path", path).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	} else {
		guiLogger.Debug().Str("path", path).Msg("Configuration loaded")
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// UI is the generator screen: a path entry, Browse and Send buttons, and a
// status bar. Send may be pressed again while a generation is running; each
// press starts an independent task.
type UI struct {
	runner   Submitter
	eventBus *events.EventBus
	window   fyne.Window
	form     *state.FormState

	pathEntry *widget.Entry
	browseBtn *widget.Button
	sendBtn   *widget.Button
	statusBar *StatusBar

	updates <-chan events.Event
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewUI creates the screen. When eventBus is nil the screen uses a private
// bus. The status bar is drawn from the form's change events once Start runs.
func NewUI(runner Submitter, eventBus *events.EventBus, window fyne.Window) *UI {
	ctx, cancel := context.WithCancel(context.Background())
	if eventBus == nil {
		eventBus = events.NewEventBus(constants.EventBusDefaultBuffer)
	}

	ui := &UI{
		runner:   runner,
		eventBus: eventBus,
		window:   window,
		form:     state.NewFormState(eventBus),
		updates:  eventBus.SubscribeAll(),
		ctx:      ctx,
		cancel:   cancel,
	}

	ui.pathEntry = widget.NewEntry()
	ui.pathEntry.SetPlaceHolder("Path to the source file")
	ui.pathEntry.OnChanged = ui.form.SetPath
	ui.pathEntry.OnSubmitted = func(string) { ui.onSend() }

	ui.browseBtn = widget.NewButtonWithIcon("Browse...", theme.FolderOpenIcon(), ui.onBrowse)
	ui.sendBtn = NewPrimaryButtonWithIcon("Send", theme.UploadIcon(), ui.onSend)
	ui.statusBar = NewStatusBar()

	return ui
}

// Build creates the layout.
func (ui *UI) Build() fyne.CanvasObject {
	title := widget.NewLabelWithStyle("Generate a project from a file", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	pathRow := container.NewBorder(nil, nil, nil, ui.browseBtn, ui.pathEntry)

	return container.NewPadded(container.NewVBox(
		title,
		VerticalSpacer(8),
		pathRow,
		VerticalSpacer(8),
		container.NewHBox(ui.sendBtn),
		VerticalSpacer(16),
		widget.NewSeparator(),
		ui.statusBar,
	))
}

// Start begins rendering form changes and logging task transitions.
func (ui *UI) Start() {
	go ui.watchEvents()
}

// Stop stops event monitoring
func (ui *UI) Stop() {
	ui.cancel()
}

func (ui *UI) onBrowse() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			ui.statusBar.SetError(fmt.Sprintf("Could not open file: %v", err))
			return
		}
		if reader == nil {
			return // cancelled
		}
		path := reader.URI().Path()
		reader.Close()
		ui.pathEntry.SetText(path)
	}, ui.window)
}

// onSend validates the entry and submits it. It never blocks the UI thread.
func (ui *UI) onSend() {
	ui.form.SetPath(ui.pathEntry.Text)
	path, err := ui.form.Begin()
	if err != nil {
		return
	}

	guiLogger.Info().Str("source", path).Msg("Generation submitted")

	handle := ui.runner.Submit(path)
	go ui.awaitResult(handle)
}

// awaitResult finishes the form state for one task. The status bar follows
// through the resulting change event.
func (ui *UI) awaitResult(handle *workflow.Handle) {
	select {
	case <-handle.Done():
	case <-ui.ctx.Done():
		return
	}

	res := handle.Result()
	guiLogger.Info().
		Str("source", handle.Source()).
		Str("state", string(res.State)).
		Dur("elapsed", handle.Duration()).
		Msg("Generation finished")

	if res.State == workflow.StateSucceeded {
		ui.form.Succeed(res.Path)
	} else {
		ui.form.Fail(res.Message)
	}
}

// render maps a form snapshot onto the status bar.
func (ui *UI) render(snap state.Snapshot) {
	switch {
	case snap.Busy && snap.InFlight > 1:
		ui.statusBar.SetProgress(fmt.Sprintf("Generating project... (%d running)", snap.InFlight))
	case snap.Busy:
		ui.statusBar.SetProgress("Generating project...")
	case snap.ErrorText != "":
		ui.statusBar.SetError(snap.StatusText())
	case snap.ResultPath != "":
		ui.statusBar.SetSuccess(snap.StatusText())
	default:
		ui.statusBar.SetInfo("Ready")
	}
}

// watchEvents renders the status bar on every form change and logs workflow
// transitions, until Stop is called or the bus closes.
func (ui *UI) watchEvents() {
	defer ui.eventBus.Unsubscribe(state.EventFormChanged, ui.updates)

	for {
		select {
		case event, ok := <-ui.updates:
			if !ok {
				return
			}
			switch ev := event.(type) {
			case *state.FormChangedEvent:
				// Later events may already be queued; draw the current state.
				ui.render(ui.form.Snapshot())
			case *events.StateChangeEvent:
				guiLogger.Debug().
					Str("task", ev.TaskID).
					Str("from", ev.OldState).
					Str("to", ev.NewState).
					Msg("Task state changed")
			}

		case <-ui.ctx.Done():
			return
		}
	}
}
