// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/pharos/pkg/tower"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	refreshIntervalSeconds = 1 // Re-read the tower every N seconds
	maxLogEntries          = 100
)

// Focus states
const (
	focusTargetList = iota
	focusEditor
)

// Number of values per field, for cycling
const (
	numLEDStates      = int(tower.LEDDuty) + 1
	numLEDPatterns    = int(tower.PatternBlink2) + 1
	numBuzzerTones    = int(tower.ToneLow) + 1
	numBuzzerVolumes  = int(tower.VolumeSmall) + 1
	numBuzzerPatterns = int(tower.BuzzerPattern4) + 1
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// target is one controllable part of the tower: a layer or the buzzer
type target struct {
	buzzer  bool
	layer   tower.Layer
	summary string
}

// Implement list.Item interface
func (t target) Title() string {
	if t.buzzer {
		return "Buzzer"
	}
	return "Layer " + t.layer.String()
}
func (t target) Description() string { return t.summary }
func (t target) FilterValue() string { return t.Title() }

type eventEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// editorField is one editable value of the selected target
type editorField struct {
	label string
	value string
}

// controlModel is the Bubble Tea model for the control TUI
type controlModel struct {
	// Connection manager (for exchanges and reconnection)
	ctx      context.Context
	connMgr  *connectionManager
	connInfo string

	// Tower state
	snapshot     tower.Snapshot
	haveSnapshot bool
	refreshing   bool

	// Pending edits, reset from the snapshot until the user changes a field
	draftLED    [len(tower.Layers)]tower.LEDStatus
	draftBuzzer tower.BuzzerStatus
	dirty       bool

	// Control
	targetList   list.Model
	focusedField int
	editorIndex  int

	// Events
	eventLog []eventEntry

	// UI state
	width          int
	height         int
	quitting       bool
	connectionLost bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type controlTickMsg time.Time

type snapshotMsg struct {
	snap tower.Snapshot
	err  error
}

type commandDoneMsg struct {
	desc string
	err  error
}

type reconnectedMsg struct {
	connInfo string
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialControlModel(ctx context.Context, connMgr *connectionManager, connInfo string) controlModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	targetList := list.New(nil, delegate, 30, 10)
	targetList.Title = "Tower"
	targetList.SetShowStatusBar(false)
	targetList.SetShowHelp(false)
	targetList.SetFilteringEnabled(false)

	m := controlModel{
		ctx:          ctx,
		connMgr:      connMgr,
		connInfo:     connInfo,
		targetList:   targetList,
		draftBuzzer:  tower.BuzzerSilent,
		focusedField: focusTargetList,
		eventLog:     make([]eventEntry, 0),
		width:        80,
		height:       24,
	}
	m.updateTargetList()
	m.addLogEntry("Connected: "+connInfo, false)
	return m
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m controlModel) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), controlTickCmd())
}

func controlTickCmd() tea.Cmd {
	return tea.Tick(refreshIntervalSeconds*time.Second, func(t time.Time) tea.Msg {
		return controlTickMsg(t)
	})
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
			m.targetList, _ = m.targetList.Update(msg)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()
		return m, nil

	case controlTickMsg:
		var cmd tea.Cmd
		if !m.refreshing && !m.connectionLost {
			m.refreshing = true
			cmd = m.refreshCmd()
		}
		return m, tea.Batch(cmd, controlTickCmd())

	case snapshotMsg:
		m.refreshing = false
		if msg.err != nil {
			cmd := m.handleError("Refresh failed", msg.err)
			return m, cmd
		}
		m.applySnapshot(msg.snap)
		return m, nil

	case commandDoneMsg:
		if msg.err != nil {
			cmd := m.handleError(msg.desc, msg.err)
			return m, cmd
		}
		m.dirty = false
		m.addLogEntry(msg.desc, false)
		m.refreshing = true
		return m, m.refreshCmd()

	case reconnectedMsg:
		m.connectionLost = false
		m.connInfo = msg.connInfo
		m.dirty = false
		m.addLogEntry("Reconnected: "+msg.connInfo, false)
		m.refreshing = true
		return m, m.refreshCmd()
	}

	return m, nil
}

func (m controlModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab", "shift+tab":
		if m.focusedField == focusTargetList {
			m.focusedField = focusEditor
		} else {
			m.focusedField = focusTargetList
		}
		m.editorIndex = 0
		return m, nil

	case "esc":
		m.focusedField = focusTargetList
		m.dirty = false
		m.resetDrafts()
		return m, nil

	case "r":
		if !m.refreshing && !m.connectionLost {
			m.refreshing = true
			return m, m.refreshCmd()
		}
		return m, nil

	case "c":
		cmd := m.runCommand("Tower cleared", func(ctx context.Context, c *tower.Client) error {
			return c.ClearTowerLight(ctx)
		})
		return m, cmd

	case "x":
		cmd := m.turnOffSelected()
		return m, cmd

	case "enter":
		if m.focusedField == focusTargetList {
			m.focusedField = focusEditor
			m.editorIndex = 0
			return m, nil
		}
		cmd := m.applySelected()
		return m, cmd
	}

	if m.focusedField == focusEditor {
		switch msg.String() {
		case "up", "k":
			if m.editorIndex > 0 {
				m.editorIndex--
			}
		case "down", "j":
			if m.editorIndex < len(m.editorFields())-1 {
				m.editorIndex++
			}
		case "left", "h":
			m.adjustField(-1)
		case "right", "l", " ":
			m.adjustField(1)
		}
		return m, nil
	}

	prev := m.targetList.Index()
	var cmd tea.Cmd
	m.targetList, cmd = m.targetList.Update(msg)
	if m.targetList.Index() != prev {
		m.dirty = false
		m.resetDrafts()
	}
	return m, cmd
}

func (m controlModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	// Header
	s.WriteString(titleStyle.Render("PHAROS CONTROL"))
	s.WriteString(" ")
	connStatus := m.connInfo
	if m.connectionLost {
		connStatus = warningStyle.Render("RECONNECTING...")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | q=quit Tab=switch Enter=apply c=clear x=off r=refresh", connStatus)))
	s.WriteString("\n\n")

	// Layout: left panel (targets) | right panel (editor)
	leftWidth := 30
	rightWidth := m.width - leftWidth - 6

	listStyle := boxStyle.Width(leftWidth)
	editorStyle := boxStyle.Width(rightWidth)
	if m.focusedField == focusTargetList {
		listStyle = focusedBoxStyle.Width(leftWidth)
	} else {
		editorStyle = focusedBoxStyle.Width(rightWidth)
	}
	targetPanel := listStyle.Render(m.targetList.View())
	editorPanel := editorStyle.Render(m.renderEditor(statsLabelStyle, statsValueStyle, headerStyle, warningStyle))

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, targetPanel, " ", editorPanel))
	s.WriteString("\n\n")

	// Statistics bar
	s.WriteString(m.renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(m.renderEventLog(statsLabelStyle, headerStyle, warningStyle, errorStyle, boxStyle))

	return s.String()
}

//////////////////////////////////////////////////////////////
// View Helpers
//////////////////////////////////////////////////////////////

func (m controlModel) renderEditor(statsLabelStyle, statsValueStyle, headerStyle, warningStyle lipgloss.Style) string {
	var s strings.Builder

	t, ok := m.selectedTarget()
	if !ok {
		s.WriteString(headerStyle.Render("Nothing selected"))
		return s.String()
	}

	s.WriteString(fmt.Sprintf("%s %s\n", statsLabelStyle.Render("Selected:"), t.Title()))
	current := "unknown"
	if m.haveSnapshot {
		current = t.summary
	}
	s.WriteString(fmt.Sprintf("%s %s\n\n", statsLabelStyle.Render("Current:"), statsValueStyle.Render(current)))

	for i, f := range m.editorFields() {
		cursor := "  "
		value := fmt.Sprintf("  %s  ", f.value)
		if m.focusedField == focusEditor && i == m.editorIndex {
			cursor = "> "
			value = fmt.Sprintf("< %s >", f.value)
		}
		s.WriteString(fmt.Sprintf("%s%-9s %s\n", cursor, f.label+":", statsValueStyle.Render(value)))
	}

	s.WriteString("\n")
	if m.dirty {
		s.WriteString(warningStyle.Render("Modified - press Enter to apply, Esc to discard"))
	} else {
		s.WriteString(headerStyle.Render("In sync with tower"))
	}
	return s.String()
}

func (m controlModel) renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle lipgloss.Style) string {
	var total, successful uint64
	var rate float64
	if c := m.connMgr.client(); c != nil {
		total, successful, rate = c.Statistics().Counts()
	}

	var okPercent, errorPercent float64
	if total > 0 {
		okPercent = float64(successful) * 100.0 / float64(total)
		errorPercent = float64(total-successful) * 100.0 / float64(total)
	}

	errors := statsValueStyle.Render("0.0%")
	if errorPercent > 0 {
		errors = errorStyle.Render(fmt.Sprintf("%.1f%%", errorPercent))
	}

	content := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
		statsLabelStyle.Render("Exchanges:"), statsValueStyle.Render(fmt.Sprintf("%d", total)),
		statsLabelStyle.Render("OK:"), statsValueStyle.Render(fmt.Sprintf("%.1f%%", okPercent)),
		statsLabelStyle.Render("Errors:"), errors,
		statsLabelStyle.Render("Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f ex/s", rate)),
	)

	return boxStyle.Width(m.width - 4).Render(content)
}

func (m controlModel) renderEventLog(statsLabelStyle, headerStyle, warningStyle, errorStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(statsLabelStyle.Render("EVENTS"))
	s.WriteString("\n")

	logHeight := 8
	if len(m.eventLog) < logHeight {
		logHeight = len(m.eventLog)
	}
	startIdx := len(m.eventLog) - logHeight

	if len(m.eventLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			icon := "i"
			style := warningStyle
			if entry.isError {
				icon = "x"
				style = errorStyle
			}
			s.WriteString(fmt.Sprintf("%s %s %s\n",
				headerStyle.Render(entry.timestamp.Format("15:04:05.000")),
				style.Render(icon),
				entry.message))
		}
	}

	return boxStyle.Width(m.width - 4).Render(s.String())
}

//////////////////////////////////////////////////////////////
// Editing
//////////////////////////////////////////////////////////////

func (m controlModel) editorFields() []editorField {
	t, ok := m.selectedTarget()
	if !ok {
		return nil
	}
	if t.buzzer {
		b := m.draftBuzzer
		return []editorField{
			{"Tone", b.Tone.String()},
			{"Volume", b.Volume.String()},
			{"Pattern", b.Pattern.String()},
		}
	}
	l := m.draftLED[t.layer]
	return []editorField{
		{"Red", l.Red.String()},
		{"Green", l.Green.String()},
		{"Blue", l.Blue.String()},
		{"Pattern", l.Pattern.String()},
	}
}

func cycle(v, n, delta int) int {
	return ((v+delta)%n + n) % n
}

// adjustField steps the selected editor field by delta, wrapping around
func (m *controlModel) adjustField(delta int) {
	t, ok := m.selectedTarget()
	if !ok {
		return
	}

	if t.buzzer {
		b := &m.draftBuzzer
		switch m.editorIndex {
		case 0:
			b.Tone = tower.BuzzerTone(cycle(int(b.Tone), numBuzzerTones, delta))
		case 1:
			b.Volume = tower.BuzzerVolume(cycle(int(b.Volume), numBuzzerVolumes, delta))
		case 2:
			b.Pattern = tower.BuzzerPattern(cycle(int(b.Pattern), numBuzzerPatterns, delta))
		}
	} else {
		l := &m.draftLED[t.layer]
		switch m.editorIndex {
		case 0:
			l.Red = tower.LEDState(cycle(int(l.Red), numLEDStates, delta))
		case 1:
			l.Green = tower.LEDState(cycle(int(l.Green), numLEDStates, delta))
		case 2:
			l.Blue = tower.LEDState(cycle(int(l.Blue), numLEDStates, delta))
		case 3:
			l.Pattern = tower.LEDPattern(cycle(int(l.Pattern), numLEDPatterns, delta))
		}
	}
	m.dirty = true
}

// resetDrafts copies the last snapshot into the pending edits
func (m *controlModel) resetDrafts() {
	if !m.haveSnapshot {
		return
	}
	m.draftLED = m.snapshot.Layers
	m.draftBuzzer = m.snapshot.Buzzer
}

//////////////////////////////////////////////////////////////
// Commands
//////////////////////////////////////////////////////////////

// runCommand runs fn against the current client off the UI goroutine
func (m *controlModel) runCommand(desc string, fn func(ctx context.Context, c *tower.Client) error) tea.Cmd {
	if m.connectionLost {
		m.addLogEntry("Cannot send command: connection lost", true)
		return nil
	}
	ctx := m.ctx
	connMgr := m.connMgr
	return func() tea.Msg {
		c := connMgr.client()
		if c == nil {
			return commandDoneMsg{desc: desc, err: tower.ErrDeviceNotOpen}
		}
		return commandDoneMsg{desc: desc, err: fn(ctx, c)}
	}
}

func (m controlModel) refreshCmd() tea.Cmd {
	ctx := m.ctx
	connMgr := m.connMgr
	return func() tea.Msg {
		c := connMgr.client()
		if c == nil {
			return snapshotMsg{err: tower.ErrDeviceNotOpen}
		}
		snap, err := c.ReadSnapshot(ctx)
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m *controlModel) applySelected() tea.Cmd {
	t, ok := m.selectedTarget()
	if !ok {
		return nil
	}
	if t.buzzer {
		status := m.draftBuzzer
		return m.runCommand("Buzzer set: "+status.String(), func(ctx context.Context, c *tower.Client) error {
			return c.SetBuzzer(ctx, status)
		})
	}
	layer := t.layer
	status := m.draftLED[layer]
	return m.runCommand(fmt.Sprintf("Layer %s set: %s", layer, status), func(ctx context.Context, c *tower.Client) error {
		return c.SetLED(ctx, layer, status)
	})
}

func (m *controlModel) turnOffSelected() tea.Cmd {
	t, ok := m.selectedTarget()
	if !ok {
		return nil
	}
	if t.buzzer {
		return m.runCommand("Buzzer stopped", func(ctx context.Context, c *tower.Client) error {
			return c.StopBuzzer(ctx)
		})
	}
	layer := t.layer
	return m.runCommand(fmt.Sprintf("Layer %s off", layer), func(ctx context.Context, c *tower.Client) error {
		return c.SetLED(ctx, layer, tower.LEDsOff)
	})
}

//////////////////////////////////////////////////////////////
// Data Processing
//////////////////////////////////////////////////////////////

// handleError logs a failed exchange and starts reconnecting when the
// connection is gone
func (m *controlModel) handleError(desc string, err error) tea.Cmd {
	if m.connectionLost {
		return nil
	}
	m.addLogEntry(fmt.Sprintf("%s: %v", desc, err), true)
	if !isConnectionLoss(err) {
		return nil
	}
	m.connectionLost = true
	m.addLogEntry("Connection lost - reconnecting...", true)
	return m.connMgr.reconnectCmd(m.ctx)
}

func (m *controlModel) applySnapshot(snap tower.Snapshot) {
	if m.haveSnapshot {
		for i, l := range snap.Layers {
			if l != m.snapshot.Layers[i] {
				m.addLogEntry(fmt.Sprintf("Layer %s: %s -> %s", tower.Layer(i), m.snapshot.Layers[i], l), false)
			}
		}
		if snap.Buzzer != m.snapshot.Buzzer {
			m.addLogEntry(fmt.Sprintf("Buzzer: %s -> %s", m.snapshot.Buzzer, snap.Buzzer), false)
		}
	}

	m.snapshot = snap
	m.haveSnapshot = true
	if !m.dirty {
		m.resetDrafts()
	}
	m.updateTargetList()
}

//////////////////////////////////////////////////////////////
// Helpers
//////////////////////////////////////////////////////////////

func (m *controlModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, eventEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})

	if len(m.eventLog) > maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-maxLogEntries:]
	}
}

func (m controlModel) selectedTarget() (target, bool) {
	item, ok := m.targetList.SelectedItem().(target)
	return item, ok
}

func (m *controlModel) updateTargetList() {
	items := make([]list.Item, 0, len(tower.Layers)+1)
	for _, layer := range tower.Layers {
		t := target{layer: layer, summary: "unknown"}
		if m.haveSnapshot {
			t.summary = m.snapshot.Layers[layer].String()
		}
		items = append(items, t)
	}
	buzzer := target{buzzer: true, summary: "unknown"}
	if m.haveSnapshot {
		buzzer.summary = m.snapshot.Buzzer.String()
	}
	items = append(items, buzzer)
	m.targetList.SetItems(items)
}

func (m *controlModel) updateListSize() {
	listHeight := m.height / 3
	if listHeight < 10 {
		listHeight = 10
	}
	m.targetList.SetSize(28, listHeight)
}
