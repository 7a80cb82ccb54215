package tabio

import (
	"net/http"
	"time"

	"github.com/tabulon-io/tabulon/pkg/tabulon"
	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// ReadURL fetches a CSV document over HTTP and parses it like a local
// file.
func ReadURL(url string, opts CSVOptions) (*frame.Frame, error) {
	resp, err := httpClient.Get(url)
	if err != nil {
		return nil, tabulon.WrapErr("tabio.url", tabulon.ErrIO, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, tabulon.Errorf("tabio.url", tabulon.ErrIO, "fetching %s: %s", url, resp.Status)
	}
	return readCSVFrom(resp.Body, opts, 0)
}
