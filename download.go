package glyphcast

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
)

const fetchChunk = 64 * 1024

// Fetch downloads url to a temp file and returns its path. The file
// keeps the URL's media extension so Open can dispatch on it. Progress
// counts bytes; Total is zero when the server sends no length. The
// caller removes the file when done with it.
func Fetch(ctx context.Context, url string, progress chan<- Progress) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &DownloadError{URL: url, Err: err}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", &DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &DownloadError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	f, err := os.CreateTemp("", "glyphcast-*"+fetchExt(url))
	if err != nil {
		return "", err
	}
	fail := func(e error) (string, error) {
		f.Close()
		os.Remove(f.Name())
		return "", e
	}

	total := 0
	if resp.ContentLength > 0 {
		total = int(resp.ContentLength)
	}
	buf := make([]byte, fetchChunk)
	done := 0
	for {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return fail(werr)
			}
			done += n
			if progress != nil {
				select {
				case progress <- Progress{Done: done, Total: total}:
				default:
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fail(&DownloadError{URL: url, Err: rerr})
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// fetchExt guesses the media extension from the URL path, ignoring query
// and fragment. Unrecognized URLs default to .gif, the common case for
// animation links.
func fetchExt(url string) string {
	u := url
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	ext := strings.ToLower(path.Ext(u))
	if ext == ".gif" || videoExts[ext] {
		return ext
	}
	return ".gif"
}
