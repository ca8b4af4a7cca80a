package drivers

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

// HTTPClient implements executor.HTTPDriver over a shared *http.Client;
// connection pooling is the client's own concern, per the component
// design's note that the driver only owns request/response plumbing. A
// non-2xx status is returned as a normal result, never as err — only
// transport/parse failures produce err, matching the open question
// resolved in SPEC_FULL.md.
type HTTPClient struct {
	Client *http.Client
}

func (c *HTTPClient) Do(ctx context.Context, method, url string, body []byte, headers map[string]string) (int, map[string]string, string, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, "", err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return 0, nil, "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, "", err
	}

	respHeaders := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		respHeaders[k] = resp.Header.Get(k)
	}
	return resp.StatusCode, respHeaders, string(respBody), nil
}
