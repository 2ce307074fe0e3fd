package page

import (
	"github.com/go-shiori/dom"
	"golang.org/x/net/html"

	"github.com/heartmarshall/study-helper/internal/document"
	"github.com/heartmarshall/study-helper/internal/domain"
)

// NotesPanelClass marks the notes panel element in the page.
const NotesPanelClass = "study-helper-notes-panel"

const (
	noteIDAttr     = "data-note-id"
	emptyNotesText = "No notes yet. Add your first note above!"
	noteDateLayout = "2006-01-02"
)

// notesPanel is the notes widget appended to the page body. All methods
// must run inside Document.Do.
type notesPanel struct {
	node      *html.Node
	list      *html.Node
	textarea  *html.Node
	minimize  *html.Node
	minimized bool
}

func newNotesPanel(root *html.Node, notes []domain.NoteRecord) *notesPanel {
	p := &notesPanel{node: dom.CreateElement("div")}
	dom.SetAttribute(p.node, "class", NotesPanelClass)

	header := element("div", "notes-header", "")
	dom.AppendChild(header, element("div", "notes-title", "📝 Notes"))
	controls := element("div", "notes-controls", "")
	p.minimize = element("button", "notes-btn", "−")
	dom.SetAttribute(p.minimize, "title", "Minimize")
	closeBtn := element("button", "notes-btn", "×")
	dom.SetAttribute(closeBtn, "title", "Close")
	dom.AppendChild(controls, p.minimize)
	dom.AppendChild(controls, closeBtn)
	dom.AppendChild(header, controls)

	content := element("div", "notes-content", "")
	input := element("div", "notes-input-area", "")
	p.textarea = element("textarea", "notes-textarea", "")
	dom.SetAttribute(p.textarea, "placeholder", "Add a note about this page...")
	dom.AppendChild(input, p.textarea)
	dom.AppendChild(input, element("button", "notes-add-btn", "Add Note"))
	p.list = element("div", "notes-list", "")
	dom.AppendChild(content, input)
	dom.AppendChild(content, p.list)

	dom.AppendChild(p.node, header)
	dom.AppendChild(p.node, content)
	dom.AppendChild(document.Body(root), p.node)

	p.render(notes)
	return p
}

// render replaces the list. Notes are stored oldest first and shown
// newest first.
func (p *notesPanel) render(notes []domain.NoteRecord) {
	for c := p.list.FirstChild; c != nil; c = p.list.FirstChild {
		dom.DetachChild(c)
	}
	if len(notes) == 0 {
		dom.AppendChild(p.list, element("div", "notes-empty", emptyNotesText))
		return
	}
	for _, n := range notes {
		p.prepend(n)
	}
}

func (p *notesPanel) prepend(n domain.NoteRecord) {
	for _, empty := range dom.GetElementsByClassName(p.list, "notes-empty") {
		dom.DetachChild(empty)
	}

	item := element("div", "note-item", "")
	dom.SetAttribute(item, noteIDAttr, n.ID)
	dom.AppendChild(item, element("div", "note-text", n.Text))
	meta := element("div", "note-meta", "")
	date := domain.TimeFromMillis(n.Timestamp).UTC().Format(noteDateLayout)
	dom.AppendChild(meta, element("span", "note-timestamp", date))
	del := element("button", "note-delete", "×")
	dom.SetAttribute(del, "title", "Delete note")
	dom.AppendChild(meta, del)
	dom.AppendChild(item, meta)

	dom.PrependChild(p.list, item)
}

func (p *notesPanel) remove(id string) bool {
	for _, item := range dom.GetElementsByClassName(p.list, "note-item") {
		if dom.GetAttribute(item, noteIDAttr) == id {
			dom.DetachChild(item)
			return true
		}
	}
	return false
}

// ids returns the note ids in display order.
func (p *notesPanel) ids() []string {
	var out []string
	for _, item := range dom.GetElementsByClassName(p.list, "note-item") {
		out = append(out, dom.GetAttribute(item, noteIDAttr))
	}
	return out
}

func (p *notesPanel) draft() string {
	return dom.TextContent(p.textarea)
}

func (p *notesPanel) setDraft(text string) {
	dom.SetTextContent(p.textarea, text)
}

func (p *notesPanel) toggleMinimized() bool {
	p.minimized = !p.minimized
	class, glyph, title := NotesPanelClass, "−", "Minimize"
	if p.minimized {
		class, glyph, title = NotesPanelClass+" minimized", "+", "Maximize"
	}
	dom.SetAttribute(p.node, "class", class)
	dom.SetTextContent(p.minimize, glyph)
	dom.SetAttribute(p.minimize, "title", title)
	return p.minimized
}

func (p *notesPanel) detach() {
	dom.DetachChild(p.node)
}

func element(tag, class, text string) *html.Node {
	el := dom.CreateElement(tag)
	dom.SetAttribute(el, "class", class)
	if text != "" {
		dom.AppendChild(el, dom.CreateTextNode(text))
	}
	return el
}
