package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/jinreport/internal/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

// Generator is the report use case the UI drives.
type Generator interface {
	Templates(path string) ([]types.TemplateInfo, error)
	Generate(ctx context.Context, req types.ReportRequest, progress chan<- float64) (*types.ReportResult, error)
}

type state int

const (
	stateTemplatePicker state = iota
	stateSources
	stateSourcePicker
	stateProcessing
	stateComplete
	stateError
)

type sourceKind int

const (
	sourceCountry sourceKind = iota
	sourceProduct
)

func (k sourceKind) String() string {
	if k == sourceCountry {
		return "country"
	}
	return "product"
}

// assignment holds the files chosen for one template sheet.
type assignment struct {
	template types.TemplateInfo
	country  string
	product  string
}

func (a assignment) complete() bool {
	return a.country != "" && a.product != ""
}

type Model struct {
	ctx context.Context
	gen Generator

	styles         Styles
	state          state
	templatePicker filepicker.Model
	sourcePicker   filepicker.Model
	templateFile   string
	assignments    []assignment
	picking        sourceKind
	cursor         int
	notice         string
	result         *types.ReportResult
	err            error
	width          int
	height         int
	progress       progress.Model
	progressChan   chan float64
	resultChan     chan generateResultMsg
}

type generateResultMsg struct {
	result *types.ReportResult
	err    error
}

type templatesLoadedMsg struct {
	templates []types.TemplateInfo
	err       error
}

type generateCompleteMsg struct {
	result *types.ReportResult
	err    error
}

type progressMsg float64

type waitForProgressMsg struct{}

func newPicker(styles Styles, allowed ...string) filepicker.Model {
	fp := filepicker.New()
	fp.AllowedTypes = allowed
	fp.CurrentDirectory, _ = os.Getwd()
	styles.picker(&fp)
	return fp
}

func InitialModel(ctx context.Context, gen Generator) Model {
	styles := NewStyles(DefaultPalette)
	return Model{
		ctx:            ctx,
		gen:            gen,
		styles:         styles,
		state:          stateTemplatePicker,
		templatePicker: newPicker(styles, ".xlsx"),
		sourcePicker:   newPicker(styles, ".csv", ".xlsx"),
		progress:       progress.New(progress.WithGradient(string(DefaultPalette.Accent), string(DefaultPalette.Highlight))),
	}
}

func (m Model) Init() tea.Cmd {
	return m.templatePicker.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Leave room for title, subtitle and help text
		height := msg.Height - 14
		if height < 5 {
			height = 5
		}
		m.templatePicker.SetHeight(height)
		m.sourcePicker.SetHeight(height)

		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateTemplatePicker:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			}

		case stateSources:
			return m.updateSources(msg)

		case stateSourcePicker:
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "esc", "q":
				m.state = stateSources
				return m, nil
			}

		case stateComplete, stateError:
			switch msg.String() {
			case "ctrl+c", "q", "enter", "esc":
				return m, tea.Quit
			}
		}

	case templatesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		if len(msg.templates) == 0 {
			m.notice = fmt.Sprintf("No template sheets found in %s", filepath.Base(m.templateFile))
			return m, nil
		}
		m.assignments = make([]assignment, len(msg.templates))
		for i, t := range msg.templates {
			m.assignments[i] = assignment{template: t}
		}
		m.cursor = 0
		m.notice = ""
		m.state = stateSources
		return m, nil

	case generateCompleteMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.result = msg.result
		m.state = stateComplete
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if m.state == stateProcessing {
			cmd := m.progress.SetPercent(float64(msg))
			return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		return m, waitForProgress(m.progressChan, m.resultChan)
	}

	switch m.state {
	case stateTemplatePicker:
		var cmd tea.Cmd
		m.templatePicker, cmd = m.templatePicker.Update(msg)

		if didSelect, path := m.templatePicker.DidSelectFile(msg); didSelect {
			m.templateFile = path
			return m, m.loadTemplates(path)
		}
		return m, cmd

	case stateSourcePicker:
		var cmd tea.Cmd
		m.sourcePicker, cmd = m.sourcePicker.Update(msg)

		if didSelect, path := m.sourcePicker.DidSelectFile(msg); didSelect {
			a := &m.assignments[m.cursor]
			if m.picking == sourceCountry {
				a.country = path
			} else {
				a.product = path
			}
			m.state = stateSources
			return m, nil
		}
		return m, cmd
	}

	return m, nil
}

func (m Model) updateSources(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "esc":
		m.state = stateTemplatePicker
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.assignments)-1 {
			m.cursor++
		}
	case "c":
		m.picking = sourceCountry
		m.state = stateSourcePicker
		return m, m.sourcePicker.Init()
	case "p":
		m.picking = sourceProduct
		m.state = stateSourcePicker
		return m, m.sourcePicker.Init()
	case "x":
		m.assignments[m.cursor].country = ""
		m.assignments[m.cursor].product = ""
	case "enter":
		req := m.request()
		if len(req.Sources) == 0 {
			m.notice = "Assign a country and a product file to at least one template"
			return m, nil
		}
		m.notice = ""
		m.state = stateProcessing
		return m.generate(req)
	}
	return m, nil
}

// request includes every template with both files assigned, in workbook
// order.
func (m Model) request() types.ReportRequest {
	req := types.ReportRequest{TemplatePath: m.templateFile}
	for _, a := range m.assignments {
		if !a.complete() {
			continue
		}
		req.Sources = append(req.Sources, types.DataSource{
			Template:    a.template.Name,
			CountryPath: a.country,
			ProductPath: a.product,
		})
	}
	return req
}

func (m Model) loadTemplates(path string) tea.Cmd {
	return func() tea.Msg {
		templates, err := m.gen.Templates(path)
		return templatesLoadedMsg{templates: templates, err: err}
	}
}

func (m Model) generate(req types.ReportRequest) (Model, tea.Cmd) {
	m.progressChan = make(chan float64, 100)
	m.resultChan = make(chan generateResultMsg, 1)

	// Capture for the goroutine
	ctx := m.ctx
	gen := m.gen
	progressChan := m.progressChan
	resultChan := m.resultChan

	cmd := tea.Batch(
		func() tea.Msg {
			go func() {
				result, err := gen.Generate(ctx, req, progressChan)

				resultChan <- generateResultMsg{result: result, err: err}

				close(progressChan)
				close(resultChan)
			}()

			return waitForProgressMsg{}
		},
		m.progress.Init(),
	)

	return m, cmd
}

func waitForProgress(progressChan chan float64, resultChan chan generateResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			// Progress channel closed, check result
			res, ok := <-resultChan
			if ok {
				return generateCompleteMsg(res)
			}
			return nil
		}

		return progressMsg(p)
	}
}

func (m Model) View() string {
	switch m.state {
	case stateTemplatePicker:
		return m.viewTemplatePicker()
	case stateSources:
		return m.viewSources()
	case stateSourcePicker:
		return m.viewSourcePicker()
	case stateProcessing:
		return m.viewProcessing()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewTemplatePicker() string {
	var s strings.Builder

	s.WriteString(m.styles.Title.Render("▦ jinreport - Template Report Builder"))
	s.WriteString("\n")
	s.WriteString(m.styles.Subtitle.Render("Select the template workbook (.xlsx)"))
	s.WriteString("\n\n")
	if m.notice != "" {
		s.WriteString(m.styles.Notice.Render(m.notice))
		s.WriteString("\n\n")
	}
	s.WriteString(m.templatePicker.View())
	s.WriteString("\n\n")
	s.WriteString(m.styles.Help.Render("Press q to quit"))

	return s.String()
}

func (m Model) viewSources() string {
	var s strings.Builder

	s.WriteString(m.styles.Title.Render("▦ Assign Data Sources"))
	s.WriteString("\n")
	s.WriteString(m.styles.Subtitle.Render(fmt.Sprintf("Template: %s", filepath.Base(m.templateFile))))
	s.WriteString("\n\n")

	for i, a := range m.assignments {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}

		checked := " "
		if a.complete() {
			checked = "✓"
		}

		line := fmt.Sprintf("%s [%s] %-16s country: %-24s product: %s",
			cursor, checked, a.template.Name, fileLabel(a.country), fileLabel(a.product))

		switch {
		case m.cursor == i:
			line = m.styles.Cursor.Render(line)
		case a.complete():
			line = m.styles.Assigned.Render(line)
		default:
			line = m.styles.Row.Render(line)
		}

		s.WriteString(line)
		s.WriteString("\n")
	}

	if m.notice != "" {
		s.WriteString("\n")
		s.WriteString(m.styles.Notice.Render(m.notice))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(m.styles.Help.Render("↑/↓: navigate • c: country file • p: product file • x: clear • enter: generate • esc: back • q: quit"))

	return m.styles.Panel.Render(s.String())
}

func (m Model) viewSourcePicker() string {
	var s strings.Builder

	name := ""
	if m.cursor < len(m.assignments) {
		name = m.assignments[m.cursor].template.Name
	}
	s.WriteString(m.styles.Title.Render(fmt.Sprintf("▦ %s: select %s data", name, m.picking)))
	s.WriteString("\n")
	s.WriteString(m.styles.Subtitle.Render("CSV or XLSX export"))
	s.WriteString("\n\n")
	s.WriteString(m.sourcePicker.View())
	s.WriteString("\n\n")
	s.WriteString(m.styles.Help.Render("esc: back"))

	return s.String()
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(m.styles.Title.Render("▦ Processing..."))
	s.WriteString("\n\n")
	s.WriteString("Filling template sheets...")
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())

	return m.styles.Panel.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(m.styles.Title.Render("✓ Report Complete!"))
	s.WriteString("\n\n")

	// Truncate paths if they're too long
	maxPathLen := m.width - 20 // Leave room for padding and borders
	if maxPathLen < 30 {
		maxPathLen = 30
	}

	s.WriteString(fmt.Sprintf("Template: %s\n", truncatePath(m.result.TemplatePath, maxPathLen)))
	s.WriteString(m.styles.Output.Render(fmt.Sprintf("Output:   %s\n", truncatePath(m.result.OutputFile, maxPathLen))))
	s.WriteString("\n")

	for _, sheet := range m.result.Sheets {
		s.WriteString(fmt.Sprintf("%-20s %d rows matched\n", sheet.SheetName, sheet.Stats.MatchedRows))
	}

	totals := m.result.Totals()
	if totals.UnresolvedRefs > 0 || totals.ZeroFallbacks > 0 {
		s.WriteString("\n")
		s.WriteString(m.styles.Warning.Render(fmt.Sprintf("%d unresolved columns, %d non-numeric values counted as zero",
			totals.UnresolvedRefs, totals.ZeroFallbacks)))
		s.WriteString("\n")
	}
	s.WriteString("\n")
	s.WriteString(m.styles.Help.Render("Press any key to exit"))

	return m.styles.Panel.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(m.styles.Notice.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(m.err.Error())
	s.WriteString("\n\n")
	s.WriteString(m.styles.Help.Render("Press any key to exit"))

	return m.styles.Panel.Render(s.String())
}

func fileLabel(path string) string {
	if path == "" {
		return "-"
	}
	return filepath.Base(path)
}

func truncatePath(p string, n int) string {
	if len(p) > n {
		return "..." + p[len(p)-n+3:]
	}
	return p
}
