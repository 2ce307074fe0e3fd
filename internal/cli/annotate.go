package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/heartmarshall/study-helper/internal/document"
	"github.com/heartmarshall/study-helper/internal/service/highlight"
	"github.com/heartmarshall/study-helper/internal/service/lookup"
	"github.com/heartmarshall/study-helper/internal/service/page"
	"github.com/heartmarshall/study-helper/internal/service/tooltip"
)

type annotateFlags struct {
	highlights []string
	notes      []string
	define     string
	out        string
	verbose    bool
}

// annotateResult is printed after the page is written.
type annotateResult struct {
	Restored    int    `yaml:"restored"`
	Highlighted int    `yaml:"highlighted"`
	Missing     int    `yaml:"missing,omitempty"`
	NotesAdded  int    `yaml:"notes_added"`
	Lookup      string `yaml:"lookup,omitempty"`
}

func newAnnotateCmd(o *options) *cobra.Command {
	f := &annotateFlags{}
	cmd := &cobra.Command{
		Use:   "annotate FILE",
		Short: "Restore, highlight and annotate a saved HTML page",
		Long: `annotate loads FILE as the page at --page, restores the domain's stored
highlights, then highlights each --highlight text, adds each --note and
looks up --define. New highlights and notes are saved on the server. The
annotated page is written to --out, or stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnotate(cmd, o, f, args[0])
		},
	}
	flags := cmd.Flags()
	flags.StringArrayVar(&f.highlights, "highlight", nil, "text to highlight (repeatable)")
	flags.StringArrayVar(&f.notes, "note", nil, "note to add (repeatable)")
	flags.StringVar(&f.define, "define", "", "word to look up; the tooltip is kept in the output")
	flags.StringVarP(&f.out, "out", "o", "", "output file (default stdout)")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "log page activity to stderr")
	return cmd
}

func runAnnotate(cmd *cobra.Command, o *options, f *annotateFlags, path string) error {
	ctx := cmd.Context()

	doc, err := readDocument(path)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	session, err := newPageSession(o, doc, logger, &printNotifier{w: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer session.Close()

	loaded := session.Load(ctx)
	res := annotateResult{Restored: loaded.Restored}

	for _, text := range f.highlights {
		r, ok := find(doc, text)
		if !ok {
			printWarn(cmd.ErrOrStderr(), fmt.Sprintf("text not found: %q", text))
			res.Missing++
			continue
		}
		session.OnSelect(ctx, page.Selection{Range: r})
		if _, ok := session.HighlightSelection(ctx); ok {
			res.Highlighted++
		}
	}

	if len(f.notes) > 0 {
		session.OpenNotes(ctx)
		for _, text := range f.notes {
			session.SetDraft(text)
			if _, ok := session.AddNote(ctx); ok {
				res.NotesAdded++
			}
		}
	}

	if f.define != "" {
		viewport := o.viewport()
		lr := session.OnDoubleClick(ctx, page.DoubleClick{
			Point:     tooltip.Point{X: viewport.Width / 2, Y: viewport.Height / 2},
			Selection: f.define,
		})
		res.Lookup = lr.Outcome.String()
	}

	if err := writeDocument(cmd.OutOrStdout(), doc, f.out); err != nil {
		return err
	}
	if f.out != "" {
		return printYAML(cmd.OutOrStdout(), res)
	}
	return printYAML(cmd.ErrOrStderr(), res)
}

// newPageSession wires a page session whose background is the server.
func newPageSession(o *options, doc *document.Document, logger *slog.Logger, notifier page.Notifier) (*page.Session, error) {
	cfg := o.cfg
	clock := clockwork.NewRealClock()
	client := o.client()
	viewport := o.viewport()

	presenter := tooltip.NewPresenter(logger, tooltip.NewHTMLSurface(doc, viewport), clock, cfg.Lookup.ErrorDismiss)
	cache, err := lookup.NewCache(cfg.Lookup.CacheSize, cfg.Lookup.CacheTTL, clock)
	if err != nil {
		return nil, fmt.Errorf("create definition cache: %w", err)
	}
	orch := lookup.NewOrchestrator(logger, cache, client, presenter, clock, cfg.Lookup.Timeout)
	store := highlight.NewStore(logger, doc, nil, client, clock)

	return page.NewSession(logger, page.Deps{
		Doc:        doc,
		Backend:    client,
		Lookup:     orch,
		Tooltip:    presenter,
		Highlights: store,
		Notifier:   notifier,
		Clock:      clock,
	}, page.Options{PageURL: o.pageURL, Viewport: viewport}), nil
}

func (o *options) viewport() tooltip.Size {
	return tooltip.Size{
		Width:  float64(o.cfg.Client.ViewportWidth),
		Height: float64(o.cfg.Client.ViewportHeight),
	}
}

func readDocument(path string) (*document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer f.Close()

	doc, err := document.ParseDetect(f)
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", path, err)
	}
	return doc, nil
}

func writeDocument(stdout io.Writer, doc *document.Document, out string) error {
	if out == "" {
		return doc.Render(stdout)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := doc.Render(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write output: %w", err)
	}
	return f.Close()
}

// find returns the first occurrence of text in the page.
func find(doc *document.Document, text string) (highlight.Range, bool) {
	var r highlight.Range
	var ok bool
	_ = doc.Do(func(root *html.Node) error {
		r, ok = highlight.Find(root, text)
		return nil
	})
	return r, ok
}

// printNotifier shows page notifications as output lines.
type printNotifier struct {
	w io.Writer
}

func (n *printNotifier) Notify(_ context.Context, level page.Level, msg string) {
	if level == page.LevelError {
		printErr(n.w, msg)
		return
	}
	printOK(n.w, msg)
}
