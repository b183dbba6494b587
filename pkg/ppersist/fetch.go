package ppersist

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/zeusync/ppersist/internal/core/codec"
	"github.com/zeusync/ppersist/internal/core/observability/log"
	"github.com/zeusync/ppersist/internal/core/record"
)

// Fetch downloads a blob with one GET request and loads it through the
// allow-list. Remote input is never decoded in trusted mode.
func (p *Persister) Fetch(ctx context.Context, url string) (*record.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	blob, err := io.ReadAll(io.LimitReader(resp.Body, p.fetchLimit+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if int64(len(blob)) > p.fetchLimit {
		return nil, codec.NewDecodeError(fmt.Sprintf("response exceeds the %d byte fetch limit", p.fetchLimit), nil)
	}

	b, err := p.Decode(blob)
	if err != nil {
		p.logger.Warn("Fetch rejected", log.String("url", url), log.Error(err))
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	p.logger.Debug("Fetched bundle", log.String("url", url), log.Int("size", len(blob)))

	return record.Project(b)
}
