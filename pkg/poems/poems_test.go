package poems

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const firstStanza = `I saw the cat that sat upon the mat,
And in the dark I saw a little light;
It was a fat and very happy cat
That slept beside the fire all the night.
It wore upon its head a little hat
And dreamed of birds that flew into the height,
And when the morning came it climbed a tree
To sing a song for all the world to see.`

func TestReadFile(t *testing.T) {
	stanzas, err := ReadFile("testdata/cats.txt")
	require.NoError(t, err)
	require.Len(t, stanzas, 2, "separators dropped, short trailing group discarded")
	assert.Equal(t, firstStanza, stanzas[0])
	assert.Contains(t, stanzas[1], "a little dog")
}

func TestReadStanzasCountsBlankLines(t *testing.T) {
	in := "one\n\nthree\nfour\nfive\nsix\nseven\neight\nnine\n"
	stanzas, err := ReadStanzas(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, stanzas, 1)
	assert.Equal(t, "one\n\nthree\nfour\nfive\nsix\nseven\neight", stanzas[0])
}

func TestReadStanzasTrimsTrailingSpace(t *testing.T) {
	in := "a\r\nb\r\nc\r\nd\r\ne\r\nf\r\ng\r\n  \r\n"
	stanzas, err := ReadStanzas(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, stanzas, 1)
	assert.Equal(t, "a\nb\nc\nd\ne\nf\ng", stanzas[0])
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestReadStanzasError(t *testing.T) {
	_, err := ReadStanzas(brokenReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestGlob(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.txt", "notes.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	files, err := Glob(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}, files)
}

func TestPreserveLineBreaks(t *testing.T) {
	got := string(PreserveLineBreaks([]byte("<p>one<br>two<BR/>three<br />four</p><div>x</DIV>")))
	assert.Equal(t, "<p>one\ntwo\nthree\nfour\n</p><div>x\n</DIV>", got)
}

func TestFromHTML(t *testing.T) {
	f, err := os.Open("testdata/cats.html")
	require.NoError(t, err)
	defer f.Close()

	pageURL, _ := url.Parse("http://localhost/poems/cats")
	page, err := FromHTML(f, pageURL)
	require.NoError(t, err)

	assert.Equal(t, "The Cat on the Mat", page.Title)
	require.Len(t, page.Stanzas, 2)
	assert.Equal(t, firstStanza, page.Stanzas[0])
	assert.Equal(t, firstStanza, page.Stanzas[1])
}
