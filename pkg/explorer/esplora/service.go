package esplora

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/sealpay-network/sealpay-daemon/pkg/circuitbreaker"
	"github.com/sealpay-network/sealpay-daemon/pkg/explorer"
)

type esplora struct {
	apiURL  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewService returns an explorer.Service backed by an esplora-compatible
// HTTP API, with all requests guarded by a circuit breaker.
func NewService(apiURL string, requestTimeout time.Duration) (explorer.Service, error) {
	if len(apiURL) <= 0 {
		return nil, fmt.Errorf("esplora: missing api url")
	}

	return &esplora{
		apiURL:  strings.TrimSuffix(apiURL, "/"),
		client:  &http.Client{Timeout: requestTimeout},
		breaker: circuitbreaker.NewCircuitBreaker("esplora"),
	}, nil
}

func (e *esplora) BroadcastTransaction(
	ctx context.Context, txHex string,
) (string, error) {
	txid, err := e.breaker.Execute(func() (interface{}, error) {
		url := fmt.Sprintf("%s/tx", e.apiURL)
		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost, url, strings.NewReader(txHex),
		)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "text/plain")

		resp, err := e.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("esplora: %s", string(body))
		}

		return strings.TrimSpace(string(body)), nil
	})
	if err != nil {
		return "", err
	}

	return txid.(string), nil
}
