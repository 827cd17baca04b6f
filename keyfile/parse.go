package keyfile

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/elliotnunn/dynareadout/internal/dconfig"
	"github.com/elliotnunn/dynareadout/internal/linebuf"
	"github.com/elliotnunn/dynareadout/internal/logctx"
	"github.com/elliotnunn/dynareadout/internal/rerror"
)

var includeNames = map[string]bool{
	"INCLUDE":           true,
	"INCLUDE_PATH":      true,
	"INCLUDE_NASTRAN":   true,
	"INCLUDE_BINARY":    true,
	"INCLUDE_TRANSFORM": true,
}

func isTransformInclude(upper string) bool {
	return upper == "INCLUDE_TRANSFORM" || upper == "INCLUDE_TRANSFORM_BINARY"
}

func isInclude(upper string) bool {
	return includeNames[upper] || isTransformInclude(upper)
}

// Parse reads path and its transitive includes into one Deck, per
// spec.md §4.6 (tokenization, line classification, include handling).
func Parse(path string, cfg dconfig.ParseConfig, opts ...dconfig.Option) (*Deck, error) {
	o := dconfig.Apply(opts...)
	log := logctx.Or(o.Logger)

	d := newDeck()
	ps := &parseState{cfg: cfg, deck: d, active: make(map[string]bool), log: log, extraPaths: cfg.ExtraIncludePaths}
	if err := ps.parseFile(path); err != nil {
		return nil, err
	}
	return d, nil
}

type parseState struct {
	cfg        dconfig.ParseConfig
	deck       *Deck
	active     map[string]bool
	log        *slog.Logger
	extraPaths []string
}

// includeKind tracks whether the current keyword is one of the include
// family, collecting its cards before dispatching the include instead of
// routing them into a normal Keyword (spec.md §4.6 "Include handling").
type includeKind int

const (
	includeNone includeKind = iota
	includeSimple
	includeTransform
)

// parseFile tokenizes one file, expanding *INCLUDE-family keywords
// inline when cfg.ParseIncludes is set.
func (ps *parseState) parseFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", rerror.ErrOpenFailed, path, err)
	}
	if ps.active[abs] {
		return fmt.Errorf("%w: circular include of %s", rerror.ErrFormatReject, path)
	}
	ps.active[abs] = true
	defer delete(ps.active, abs)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", rerror.ErrOpenFailed, path, err)
	}
	defer f.Close()

	dir := filepath.Dir(path)
	lr := linebuf.New(f)

	var current *Keyword
	kind := includeNone
	var pending []string

	// flushTransform dispatches an *INCLUDE_TRANSFORM block that ended
	// (at the next keyword or end of file) before all five cards appeared.
	flushTransform := func() error {
		if kind != includeTransform || len(pending) == 0 {
			return nil
		}
		it := parseIncludeTransformCards(pending)
		kind, pending = includeNone, nil
		return ps.handleInclude(dir, it.FileName, it)
	}

	for {
		line, err := lr.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %v", rerror.ErrFormatReject, path, err)
		}

		lineKind, rest := linebuf.Classify(line.Text)
		switch lineKind {
		case linebuf.KindEmpty, linebuf.KindComment:
			continue

		case linebuf.KindKeyword:
			if err := flushTransform(); err != nil {
				return err
			}
			name := strings.TrimSpace(string(rest))
			if name == "END" {
				return nil
			}
			upper := strings.ToUpper(name)
			kind = includeNone
			pending = nil
			if ps.cfg.ParseIncludes && isInclude(upper) {
				if isTransformInclude(upper) {
					kind = includeTransform
				} else {
					kind = includeSimple
				}
				current = nil
				continue
			}
			current = &Keyword{Name: name}
			ps.deck.add(current)

		case linebuf.KindCard:
			text := string(line.Text)
			switch kind {
			case includeSimple:
				filename := strings.TrimSpace(text)
				if err := ps.handleInclude(dir, filename, nil); err != nil {
					return err
				}
				kind = includeNone
			case includeTransform:
				pending = append(pending, text)
				if len(pending) == 5 {
					it := parseIncludeTransformCards(pending)
					if err := ps.handleInclude(dir, it.FileName, it); err != nil {
						return err
					}
					kind = includeNone
				}
			default:
				if current != nil {
					current.Cards = append(current.Cards, text)
				}
			}
		}
	}
	return flushTransform()
}

// handleInclude resolves filename against dir then every extra include
// path, parses it into a temporary Deck, applies it's optional transform,
// then merges its keywords into ps.deck (spec.md §4.6 "Include handling").
func (ps *parseState) handleInclude(dir, filename string, it *IncludeTransform) error {
	resolved, err := ps.resolveInclude(dir, filename)
	if err != nil {
		if ps.cfg.IgnoreNotFoundIncludes {
			ps.deck.Warnings = append(ps.deck.Warnings, fmt.Sprintf("include not found: %s", filename))
			ps.log.Warn("keyfile: include not found, ignoring", "file", filename)
			return nil
		}
		return err
	}

	sub := newDeck()
	subPS := &parseState{cfg: ps.cfg, deck: sub, active: ps.active, log: ps.log, extraPaths: ps.extraPaths}
	if err := subPS.parseFile(resolved); err != nil {
		return err
	}

	if it != nil {
		applyIncludeTransform(sub.Keywords, it)
	}
	for _, kw := range sub.Keywords {
		ps.deck.add(kw)
	}
	ps.deck.Warnings = append(ps.deck.Warnings, sub.Warnings...)
	return nil
}

func (ps *parseState) resolveInclude(dir, filename string) (string, error) {
	candidate := filename
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(dir, filename)
	}
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	for _, p := range ps.extraPaths {
		candidate = filepath.Join(p, filename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: include %s not found relative to %s or extra include paths", rerror.ErrOpenFailed, filename, dir)
}
