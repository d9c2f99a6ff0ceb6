// Package keyserver retrieves public keys from an HKP keyserver. Retrieval
// is best effort: failures and malformed responses are reported per key and
// logged as warnings, never as fatal errors.
package keyserver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	"github.com/pmylund/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/graphseal/graphseal/pkg/logs"
	"github.com/graphseal/graphseal/pkg/pgp"
)

// lookupStub is the HKP index lookup path, used to build stable URLs
// identifying a key on its keyserver.
const lookupStub = "/pks/lookup?op=index&exact=true&search="

// LookupURL returns the lookup URL identifying fingerprint on server.
func LookupURL(server, fingerprint string) string {
	return strings.TrimSuffix(server, "/") + lookupStub + pgp.NormalizeFingerprint(fingerprint)
}

// Importer is the part of the keyring the client feeds fetched keys into.
type Importer interface {
	Import(armoredKeys string) ([]string, error)
}

// Problem describes one fingerprint that could not be fetched or imported.
type Problem struct {
	Fingerprint string
	Reason      string
}

// ImportResult reports the outcome of a Fetch: the fingerprints of every
// imported key and a problem per fingerprint that yielded nothing.
type ImportResult struct {
	Fingerprints []string
	Problems     []Problem
}

// Client fetches armored keys from one HKP keyserver and imports them into a
// keyring. Results are cached so a fingerprint is only requested once per
// cache window, however often resolution asks for it.
type Client struct {
	server     string
	httpClient *http.Client
	ring       Importer
	results    *cache.Cache
	log        *logrus.Entry
}

// New creates a keyserver client for the given server base URL. If
// httpClient is nil, a default HTTP client will be created.
func New(server string, ring Importer, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		server:     strings.TrimSuffix(server, "/"),
		httpClient: httpClient,
		ring:       ring,
		results:    cache.New(15*time.Minute, 30*time.Minute),
		log:        logs.Component("keyserver"),
	}
}

// Fetch retrieves the given fingerprints and imports whatever the server
// returns. Every failure is recorded as a Problem and logged at warning
// level; Fetch itself never fails.
func (c *Client) Fetch(ctx context.Context, fingerprints []string) ImportResult {
	var result ImportResult
	for _, fingerprint := range fingerprints {
		fingerprint = pgp.NormalizeFingerprint(fingerprint)
		if cached, ok := c.results.Get(fingerprint); ok {
			result.Fingerprints = append(result.Fingerprints, cached.([]string)...)
			continue
		}

		armored, err := c.fetch(ctx, fingerprint)
		if err != nil {
			c.log.Warnf("could not fetch key %s from %s: %s", fingerprint, c.server, err)
			result.Problems = append(result.Problems, Problem{Fingerprint: fingerprint, Reason: err.Error()})
			continue
		}

		imported, err := c.ring.Import(armored)
		if err != nil {
			c.log.Warnf("invalid response from keyserver for key %s: %s", fingerprint, err)
			result.Problems = append(result.Problems, Problem{Fingerprint: fingerprint, Reason: err.Error()})
			continue
		}

		c.results.Set(fingerprint, imported, cache.DefaultExpiration)
		result.Fingerprints = append(result.Fingerprints, imported...)
	}
	return result
}

// fetch performs the HKP machine-readable get request for one fingerprint,
// retrying transient failures.
func (c *Client) fetch(ctx context.Context, fingerprint string) (string, error) {
	endpoint := fmt.Sprintf("%s/pks/lookup?op=get&options=mr&search=0x%s", c.server, fingerprint)

	var body string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(errors.Errorf("key not found on %s", c.server))
		case resp.StatusCode != http.StatusOK:
			return errors.Errorf("unexpected status code %d from %s", resp.StatusCode, endpoint)
		}

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		body = string(raw)
		return nil
	}

	backOff := backoff.NewExponentialBackOff()
	backOff.InitialInterval = 500 * time.Millisecond
	backOff.MaxElapsedTime = 10 * time.Second
	err := backoff.RetryNotify(operation, backoff.WithContext(backOff, ctx), func(err error, t time.Duration) {
		c.log.Warnf("retrying keyserver fetch in %v after error: %s", t, err)
	})
	if err != nil {
		return "", err
	}
	return body, nil
}
