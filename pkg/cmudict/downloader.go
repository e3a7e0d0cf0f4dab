package cmudict

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultCorpusURL points at the CMU Pronouncing Dictionary 0.7b release,
// which uses the two-space "WORD  PHONEMES" layout Load expects.
const DefaultCorpusURL = "https://svn.code.sf.net/p/cmusphinx/code/trunk/cmudict/cmudict-0.7b"

// EnsureCorpus checks if the corpus exists at path.
// If not, it downloads url (DefaultCorpusURL when empty) and stores it at path.
// Downloads ending in ".gz" or ".xz" are decompressed before being written.
func EnsureCorpus(ctx context.Context, path, url string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if url == "" {
		url = DefaultCorpusURL
	}

	fmt.Printf("Corpus not found at %s. Downloading from %s...\n", path, url)
	return download(ctx, url, path)
}

func download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "ottava-cli")

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	body, err := decompress(url, resp.Body)
	if err != nil {
		return err
	}

	// Write next to the destination and rename so a failed download never
	// leaves a truncated corpus behind.
	tmp, err := os.CreateTemp(filepath.Dir(destPath), filepath.Base(destPath)+".*.part")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write corpus: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), destPath)
}
