// Package poems turns poem files and web pages into stanzas.
package poems

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-shiori/go-readability"

	"github.com/japaniel/ottava/pkg/prosody"
)

// SeparatorPrefix marks lines that divide poems or sections in a file.
// Such lines are discarded before grouping.
const SeparatorPrefix = "---"

const trailingSpace = " \t\n\r\x00\x0B"

// ReadStanzas groups every eight non-separator lines into a stanza.
// Lines are counted as they appear, blank lines included. A final group of
// fewer than eight lines is dropped.
func ReadStanzas(r io.Reader) ([]string, error) {
	var stanzas []string
	group := make([]string, 0, prosody.StanzaLines)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.HasPrefix(line, SeparatorPrefix) {
			continue
		}
		group = append(group, line)
		if len(group) == prosody.StanzaLines {
			stanzas = append(stanzas, strings.TrimRight(strings.Join(group, "\n"), trailingSpace))
			group = group[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return stanzas, fmt.Errorf("read poem: %w", err)
	}
	return stanzas, nil
}

// ReadFile reads the stanzas of the poem file at path.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadStanzas(f)
}

// Glob lists the *.txt poem files in dir in lexical order.
func Glob(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, "*.txt"))
}

// Page is a poem extracted from a web page.
type Page struct {
	Title   string
	Stanzas []string
}

// FromHTML extracts the main article of an HTML page and groups its
// non-blank lines into stanzas.
func FromHTML(r io.Reader, pageURL *url.URL) (Page, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return Page{}, err
	}

	article, err := readability.FromReader(bytes.NewReader(PreserveLineBreaks(body)), pageURL)
	if err != nil {
		return Page{}, fmt.Errorf("extract article: %w", err)
	}

	var lines []string
	for _, l := range strings.Split(article.TextContent, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	stanzas, err := ReadStanzas(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		return Page{}, err
	}
	return Page{Title: article.Title, Stanzas: stanzas}, nil
}

var (
	reBreak    = regexp.MustCompile(`(?i)<br\s*/?>`)
	reBlockEnd = regexp.MustCompile(`(?i)</(p|div|li|h[1-6]|blockquote|pre)>`)
)

// PreserveLineBreaks turns <br> tags into newlines and ends every block
// element with one. Article text extraction ignores markup, so without this
// the lines of a verse paragraph would run together.
func PreserveLineBreaks(content []byte) []byte {
	cleaned := reBreak.ReplaceAll(content, []byte("\n"))
	cleaned = reBlockEnd.ReplaceAll(cleaned, []byte("\n</$1>"))
	return cleaned
}
