package ui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/gubarz/twchain/internal/apply"
	"github.com/gubarz/twchain/internal/workspace"
)

// ============================================================================
// File Item
// ============================================================================

// fileItem wraps a pending FileChange with its selection state
type fileItem struct {
	change   *workspace.FileChange
	selected bool
}

// matchesQuery checks if the path fuzzily matches all search words
func (item *fileItem) matchesQuery(words []string) bool {
	for _, word := range words {
		if !fuzzy.MatchFold(word, item.change.Path) {
			return false
		}
	}
	return true
}

// ============================================================================
// Debounce
// ============================================================================

// filterMsg triggers filtering after debounce
type filterMsg struct{}

// debounceFilter returns a command that triggers filtering after a delay
func debounceFilter() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return filterMsg{}
	})
}

// ============================================================================
// Review Model
// ============================================================================

const previewLines = 8

// reviewModel lets the user pick which pending rewrites to write to disk
type reviewModel struct {
	width     int
	height    int
	textInput textinput.Model

	items     []fileItem
	filtered  []int // indices into items
	cursor    int
	offset    int // viewport scroll offset
	quitting  bool
	confirmed bool
}

// newReviewModel creates a review model with every change selected
func newReviewModel(changes []workspace.FileChange) reviewModel {
	ti := textinput.New()
	ti.Placeholder = "Filter files..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	items := make([]fileItem, len(changes))
	filtered := make([]int, len(changes))
	for i := range changes {
		items[i] = fileItem{change: &changes[i], selected: true}
		filtered[i] = i
	}

	return reviewModel{
		textInput: ti,
		items:     items,
		filtered:  filtered,
	}
}

// Init implements tea.Model
func (m reviewModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 4
	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	case filterMsg:
		m.filterItems()
		return m, nil
	}

	prevQuery := m.textInput.Value()
	var tiCmd tea.Cmd
	m.textInput, tiCmd = m.textInput.Update(msg)
	cmds = append(cmds, tiCmd)

	// Only trigger debounced filter if query changed
	if m.textInput.Value() != prevQuery {
		cmds = append(cmds, debounceFilter())
	}

	return m, tea.Batch(cmds...)
}

// handleKey processes navigation and selection keys. Keys it does not
// handle go to the filter input.
func (m *reviewModel) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return tea.Quit, true
	case "enter":
		m.confirmed = true
		return tea.Quit, true
	case "tab":
		if item := m.current(); item != nil {
			item.selected = !item.selected
		}
		m.moveCursor(1)
		return nil, true
	case "ctrl+a":
		m.toggleAll()
		return nil, true
	case "up", "ctrl+p":
		m.moveCursor(-1)
		return nil, true
	case "down", "ctrl+n":
		m.moveCursor(1)
		return nil, true
	case "pgup":
		m.moveCursor(-10)
		return nil, true
	case "pgdown":
		m.moveCursor(10)
		return nil, true
	}
	return nil, false
}

// current returns the item under the cursor
func (m *reviewModel) current() *fileItem {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return nil
	}
	return &m.items[m.filtered[m.cursor]]
}

// toggleAll selects every visible item, or clears them when all are selected
func (m *reviewModel) toggleAll() {
	all := true
	for _, idx := range m.filtered {
		if !m.items[idx].selected {
			all = false
			break
		}
	}
	for _, idx := range m.filtered {
		m.items[idx].selected = !all
	}
}

// moveCursor moves the cursor by delta, clamping to valid range
func (m *reviewModel) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, max(0, len(m.filtered)-1))
	m.adjustOffset()
}

// adjustOffset ensures cursor is visible within viewport
func (m *reviewModel) adjustOffset() {
	viewHeight := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+viewHeight {
		m.offset = m.cursor - viewHeight + 1
	}
	m.offset = clamp(m.offset, 0, max(0, len(m.filtered)-viewHeight))
}

// filterItems filters the file list based on the search query
func (m *reviewModel) filterItems() {
	words := strings.Fields(m.textInput.Value())
	m.filtered = m.filtered[:0]
	for i := range m.items {
		if m.items[i].matchesQuery(words) {
			m.filtered = append(m.filtered, i)
		}
	}
	m.cursor = clamp(m.cursor, 0, max(0, len(m.filtered)-1))
	m.adjustOffset()
}

// Selected returns the changes the user kept selected
func (m reviewModel) Selected() []workspace.FileChange {
	var out []workspace.FileChange
	for _, item := range m.items {
		if item.selected {
			out = append(out, *item.change)
		}
	}
	return out
}

// ============================================================================
// Rendering
// ============================================================================

// View implements tea.Model
func (m reviewModel) View() string {
	if m.quitting || m.confirmed {
		return ""
	}

	width := max(m.width, 80)
	var b strings.Builder
	b.WriteString(m.renderPreview(width))
	b.WriteString(m.renderList())
	b.WriteString(m.renderInput(width))
	return b.String()
}

// renderPreview shows the expanded tokens of the file under the cursor
func (m reviewModel) renderPreview(width int) string {
	var b strings.Builder
	lines := 0

	if item := m.current(); item != nil {
		b.WriteString(styles.Path.Render(item.change.Path))
		b.WriteString("\n")
		lines++
		for i, c := range item.change.Changes {
			if lines == previewLines-1 && i < len(item.change.Changes)-1 {
				rest := len(item.change.Changes) - i
				b.WriteString(styles.Dim.Render(fmt.Sprintf("  … %d more", rest)))
				b.WriteString("\n")
				lines++
				break
			}
			b.WriteString("  ")
			b.WriteString(formatChange(c))
			b.WriteString("\n")
			lines++
		}
	}

	// Pad to fixed height
	for lines < previewLines {
		b.WriteString("\n")
		lines++
	}

	b.WriteString(styles.Divider.Render(strings.Repeat("─", width)))
	b.WriteString("\n")
	return b.String()
}

// renderList renders the scrollable list of files
func (m reviewModel) renderList() string {
	height := m.listHeight()
	end := min(m.offset+height, len(m.filtered))

	var b strings.Builder
	rows := 0
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderItem(m.items[m.filtered[i]], i == m.cursor))
		b.WriteString("\n")
		rows++
	}
	for ; rows < height; rows++ {
		b.WriteString("\n")
	}
	return b.String()
}

// renderItem renders a single list row
func (m reviewModel) renderItem(item fileItem, isCursor bool) string {
	check := "[ ]"
	if item.selected {
		check = styles.Check.Render("[x]")
	}
	pointer := "  "
	if isCursor {
		pointer = styles.Cursor.Render("> ")
	}
	count := styles.Dim.Render(fmt.Sprintf("(%d)", len(item.change.Changes)))

	row := pointer + check + " " + item.change.Path + " " + count
	if isCursor {
		return styles.WithSelection(lipgloss.NewStyle()).Render(row)
	}
	return row
}

// renderInput renders the input section at the bottom
func (m reviewModel) renderInput(width int) string {
	selected := 0
	for _, item := range m.items {
		if item.selected {
			selected++
		}
	}

	var b strings.Builder
	b.WriteString(styles.Divider.Render(strings.Repeat("─", width)))
	b.WriteString("\n")
	b.WriteString(styles.Dim.Render(fmt.Sprintf("  %d/%d selected", selected, len(m.items))))
	b.WriteString(" • ")
	b.WriteString(styles.Dim.Render("Tab toggle • Ctrl+A all • Enter write • ESC cancel"))
	b.WriteString("\n")
	b.WriteString(m.textInput.View())
	return b.String()
}

// listHeight is the number of rows available for the file list
func (m reviewModel) listHeight() int {
	// preview + divider + divider + info + input
	return max(max(m.height, 24)-previewLines-4, 3)
}

// ============================================================================
// Run TUI
// ============================================================================

// getTTY returns file handles for TUI input/output
// Uses /dev/tty to bypass shell pipes and command substitution
func getTTY() (in *os.File, out *os.File, cleanup func()) {
	var closers []func()

	if fileInfo, _ := os.Stdout.Stat(); (fileInfo.Mode() & os.ModeCharDevice) == 0 {
		out, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
		if err != nil {
			out = os.Stderr // Last resort fallback
		} else {
			closers = append(closers, func() { out.Close() })
		}

		in, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
		if err != nil {
			in = os.Stdin
		} else {
			closers = append(closers, func() { in.Close() })
		}

		// Tell lipgloss to use the TTY for color detection
		lipgloss.SetDefaultRenderer(lipgloss.NewRenderer(out))

		return in, out, func() {
			for _, c := range closers {
				c()
			}
		}
	}

	return os.Stdin, os.Stdout, func() {}
}

// Run shows the pending changes and writes the ones the user confirms.
// It returns the number of files written.
func Run(changes []workspace.FileChange, applier *apply.Applier) (int, error) {
	if len(changes) == 0 {
		return 0, nil
	}

	ttyIn, ttyOut, cleanup := getTTY()
	RefreshStyles() // Refresh after getTTY sets up the renderer
	p := tea.NewProgram(newReviewModel(changes), tea.WithAltScreen(), tea.WithOutput(ttyOut), tea.WithInput(ttyIn))
	finalModel, err := p.Run()
	cleanup()
	if err != nil {
		return 0, err
	}

	result := finalModel.(reviewModel)
	if !result.confirmed {
		return 0, nil
	}

	selected := result.Selected()
	if err := applier.Apply(selected, apply.ModeWrite); err != nil {
		return 0, err
	}
	return len(selected), nil
}

// ============================================================================
// Helpers
// ============================================================================

// clamp restricts v to the range [minV, maxV]
func clamp(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
