package assets

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// httpClient fetches remote images (environment maps are often downloaded straight from HDRI libraries).
var httpClient = &http.Client{Timeout: 2 * time.Minute}

// isRemote reports whether path is a URL instead of a local file.
func isRemote(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// open reads a local file or an http(s) URL.
func open(path string) (io.ReadCloser, error) {
	if !isRemote(path) {
		return os.Open(path)
	}
	resp, err := httpClient.Get(path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	return resp.Body, nil
}
