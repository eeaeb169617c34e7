package preview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Strob0t/showcase/internal/domain/project"
)

// Fetcher retrieves the bytes behind a remote file reference.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// ErrNoFetcher is reported when a file references a URL but no Fetcher is configured.
var ErrNoFetcher = errors.New("remote files are not supported")

// Text is the loaded content of one file. Err is set when the file could not
// be retrieved; Body then holds a placeholder comment instead of the content.
type Text struct {
	Body string
	Err  error
}

// Degraded reports whether Body is a placeholder.
func (t Text) Degraded() bool { return t.Err != nil }

// Loader resolves file descriptors into UTF-8 text.
type Loader struct {
	fetcher Fetcher
}

// NewLoader creates a Loader. fetcher may be nil, in which case remote
// references always resolve to placeholders.
func NewLoader(fetcher Fetcher) *Loader {
	return &Loader{fetcher: fetcher}
}

// LoadText resolves f: inline content is decoded, a URL is fetched, and a
// file with neither yields empty text. It never returns an error; failed
// fetches produce a placeholder comment naming the file and the reason.
func (l *Loader) LoadText(ctx context.Context, name string, f project.File) Text {
	switch {
	case f.Content != "":
		return Text{Body: DecodeDataURL(f.Content)}
	case f.URL != "":
		if l.fetcher == nil {
			return failed(name, ErrNoFetcher)
		}
		data, err := l.fetcher.Fetch(ctx, f.URL)
		if err != nil {
			return failed(name, err)
		}
		return Text{Body: string(data)}
	default:
		return Text{}
	}
}

func failed(name string, err error) Text {
	return Text{Body: Placeholder(name, err.Error()), Err: err}
}

// Placeholder renders the HTML comment that stands in for a file that
// could not be loaded. It is a single line that cannot close the <style>
// or <script> element it lands in.
func Placeholder(name, reason string) string {
	return fmt.Sprintf("<!-- %s: failed to load (%s) -->", placeholderText(name), placeholderText(reason))
}

var placeholderEscaper = strings.NewReplacer("</", `<\/`, "\r", " ", "\n", " ")

func placeholderText(s string) string {
	return escapeComment(placeholderEscaper.Replace(s))
}
