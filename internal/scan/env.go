// Package scan implements the toolbelt report commands. Every command walks
// the scan root through walk, reads files through reader and renders one
// Markdown body; writing the body is left to the caller.
package scan

import (
	"context"
	"iter"
	"os"
	"path/filepath"
	"time"

	"github.com/morozRed/toolbelt/internal/classify"
	"github.com/morozRed/toolbelt/internal/ignore"
	"github.com/morozRed/toolbelt/internal/linkcheck"
	"github.com/morozRed/toolbelt/internal/logger"
	"github.com/morozRed/toolbelt/internal/reader"
	"github.com/morozRed/toolbelt/internal/tokens"
	"github.com/morozRed/toolbelt/internal/walk"
)

// Env is everything a command needs besides its own flags.
type Env struct {
	// Root is the scan path exactly as the user gave it.
	Root     string
	Walker   *walk.Walker
	Ignore   *ignore.Matcher
	Include  []string
	Reader   reader.Reader
	MaxBytes int64
	Workers  int
	Log      logger.Logger
	Links    *linkcheck.Checker
	Tokens   tokens.Counter
	Params   Params
	RunID    string
	Now      func() time.Time
	// Progress, when set, is called with the RelPath of every file read.
	// It may be called from several goroutines at once.
	Progress func(rel string)
}

// NewEnv returns an Env for root with default collaborators.
func NewEnv(root string) *Env {
	return &Env{
		Root:     root,
		Walker:   walk.New(nil),
		Reader:   reader.FileReader{},
		MaxBytes: reader.DefaultMaxBytes,
		Log:      logger.Discard(),
		Links:    linkcheck.New(linkcheck.DefaultTimeout),
		Tokens:   tokens.Heuristic{},
		Params:   Params{},
		Now:      time.Now,
	}
}

func (e *Env) walker() *walk.Walker {
	if e.Walker == nil {
		e.Walker = walk.New(nil)
	}
	return e.Walker
}

func (e *Env) log() logger.Logger {
	if e.Log == nil {
		return logger.Discard()
	}
	return e.Log
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// files walks the scan root keeping files whose extension is in exts, or
// every file when exts is nil.
func (e *Env) files(exts *classify.ExtensionSet) iter.Seq[walk.Entry] {
	return e.walker().Walk(e.Root, walk.Options{
		Extensions: exts,
		Include:    e.Include,
		Ignore:     e.Ignore,
	})
}

// entries is files materialized in RelPath order.
func (e *Env) entries(exts *classify.ExtensionSet) []walk.Entry {
	return walk.Collect(e.files(exts))
}

// read loads path as text under the configured ceiling.
func (e *Env) read(entry walk.Entry) reader.Result {
	return e.readMax(entry, e.MaxBytes)
}

func (e *Env) readMax(entry walk.Entry, maxBytes int64) reader.Result {
	rd := e.Reader
	if rd == nil {
		rd = reader.FileReader{}
	}
	if e.Progress != nil {
		e.Progress(entry.RelPath)
	}
	res := rd.ReadText(entry.AbsPath, maxBytes)
	if !res.OK() {
		e.log().Debugf("skip %s (%s)", entry.RelPath, res.Skip)
	}
	return res
}

// textFile is a walked file that produced text.
type textFile struct {
	walk.Entry
	Text string
}

// texts reads every matching file concurrently and returns the ones that
// produced text, in RelPath order. Empty files are kept.
func (e *Env) texts(ctx context.Context, exts *classify.ExtensionSet, maxBytes int64) ([]textFile, error) {
	if maxBytes <= 0 {
		maxBytes = e.MaxBytes
	}
	items, err := walk.Map(ctx, e.files(exts), e.Workers, func(entry walk.Entry) (string, bool) {
		res := e.readMax(entry, maxBytes)
		return res.Text, res.OK()
	})
	out := make([]textFile, 0, len(items))
	for _, item := range items {
		out = append(out, textFile{Entry: item.Entry, Text: item.Value})
	}
	return out, err
}

// nonEmpty drops files whose text is empty.
func nonEmpty(files []textFile) []textFile {
	out := files[:0:0]
	for _, f := range files {
		if f.Text != "" {
			out = append(out, f)
		}
	}
	return out
}

// fileSize returns the size of path, or 0 when it cannot be stat'ed.
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// rootFile joins name onto the scan root. Absolute names are used as is.
func (e *Env) rootFile(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(e.Root, name)
}

// relToRoot renders path relative to the scan root, or path itself when it
// cannot be relativized.
func (e *Env) relToRoot(path string) string {
	rel, err := filepath.Rel(e.Root, path)
	if err != nil {
		return path
	}
	return rel
}

var (
	textExts  = classify.DefaultTextExtensions()
	imageExts = classify.DefaultImageExtensions()
	pyExts    = classify.NewExtensionSet(".py")
	mdExts    = classify.NewExtensionSet(".md")
	jsonExts  = classify.NewExtensionSet(".json")
	csvExts   = classify.NewExtensionSet(".csv")
	txtExts   = classify.NewExtensionSet(".txt")
	xmlExts   = classify.NewExtensionSet(".xml")
	yamlExts  = classify.NewExtensionSet(".yaml", ".yml")
	htmlExts  = classify.NewExtensionSet(".html", ".htm")
	tomlExts  = classify.NewExtensionSet(".toml")
	iniExts   = classify.NewExtensionSet(".ini")
)
