// Package links turns related texts into navigable site paths.
package links

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/hyperjump/tsunagu/internal/models"
	"github.com/hyperjump/tsunagu/internal/reference"
	"github.com/hyperjump/tsunagu/pkg/utils"
)

// ErrUnresolvable is matched by every error returned from ToPath.
var ErrUnresolvable = errors.New("unresolvable link")

// Generator builds locale-prefixed paths under /{locale}/sacred-texts.
type Generator struct {
	logger *zap.Logger
}

// NewGenerator returns a link generator that reports unresolvable links to logger.
func NewGenerator(logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{logger: logger}
}

// ToPath returns the path for rt. An absolute URL on rt is returned unchanged.
// Otherwise the reference must name a single verse; anything that would leave an
// empty path segment is an error matching ErrUnresolvable.
func (g *Generator) ToPath(rt models.RelatedText, locale string) (string, error) {
	if isAbsolute(rt.URL) {
		return rt.URL, nil
	}
	path, err := g.toPath(rt, locale)
	if err != nil {
		g.logger.Warn("unresolvable related text",
			zap.String("reference", rt.Reference),
			zap.String("type", string(rt.Type)),
			zap.String("locale", locale),
			zap.Error(err),
		)
		return "", err
	}
	return path, nil
}

func (g *Generator) toPath(rt models.RelatedText, locale string) (string, error) {
	if !utils.ValidLocale(locale) {
		return "", fmt.Errorf("%w: invalid locale %q", ErrUnresolvable, locale)
	}
	if rt.Type == models.TextExternal {
		return "", fmt.Errorf("%w: external text %q has no absolute url", ErrUnresolvable, rt.Reference)
	}
	ref, err := reference.Parse(rt.Reference)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnresolvable, err)
	}
	return VersePath(ref, locale)
}

// VersePath returns the path of a verse reference.
func VersePath(ref reference.Reference, locale string) (string, error) {
	if !utils.ValidLocale(locale) {
		return "", fmt.Errorf("%w: invalid locale %q", ErrUnresolvable, locale)
	}
	if !ref.HasVerse() {
		return "", fmt.Errorf("%w: %s has no verse", ErrUnresolvable, ref)
	}
	base := "/" + locale + "/sacred-texts/" + string(ref.Tradition)
	chapter := strconv.Itoa(ref.Chapter)
	verse := strconv.Itoa(ref.Verse)
	switch ref.Tradition {
	case reference.Quran:
		return base + "/" + chapter + "/" + verse, nil
	case reference.Bible, reference.Torah:
		book := utils.Slugify(ref.Book)
		if book == "" {
			return "", fmt.Errorf("%w: %s has no book", ErrUnresolvable, ref)
		}
		return base + "/" + book + "/" + chapter + "/" + verse, nil
	}
	return "", fmt.Errorf("%w: unknown tradition %q", ErrUnresolvable, ref.Tradition)
}

// Resolve returns a copy of il with Path set on every related text that resolves.
// Texts that do not resolve keep an empty Path; ToPath has already logged them.
func (g *Generator) Resolve(il *models.VerseInterlinks, locale string) *models.VerseInterlinks {
	out := il.Clone()
	for i := range out.RelatedTexts {
		if path, err := g.ToPath(out.RelatedTexts[i], locale); err == nil {
			out.RelatedTexts[i].Path = path
		}
	}
	return out
}

// ResolveConnection returns a copy of conn with paths set on its texts.
func (g *Generator) ResolveConnection(conn *models.Connection, locale string) *models.Connection {
	out := conn.Clone()
	for i := range out.Texts {
		if path, err := g.ToPath(out.Texts[i], locale); err == nil {
			out.Texts[i].Path = path
		}
	}
	return out
}

// ConnectionsPath is the cross-connections index page, the fallback target when a
// connection cannot be found. An empty locale yields the unprefixed path.
func ConnectionsPath(locale string) string {
	if locale == "" {
		return "/sacred-texts/cross-connections"
	}
	return "/" + locale + "/sacred-texts/cross-connections"
}

// ConnectionPath is the page of a single connection.
func ConnectionPath(locale, id string) string {
	return ConnectionsPath(locale) + "/" + url.PathEscape(id)
}

func isAbsolute(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.IsAbs() && u.Host != ""
}
