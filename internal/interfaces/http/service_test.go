package httpinterface_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sealpay-network/sealpay-daemon/internal/core/application"
	"github.com/sealpay-network/sealpay-daemon/internal/infrastructure/storage/db/inmemory"
	httpinterface "github.com/sealpay-network/sealpay-daemon/internal/interfaces/http"
	"github.com/sealpay-network/sealpay-daemon/pkg/identity"
)

var (
	payerKey    = strings.Repeat("11", 32)
	receiverKey = strings.Repeat("22", 32)
	genesisTxID = strings.Repeat("ab", 32)
	invoiceTxID = strings.Repeat("cd", 32)
)

type serverCredentials struct{}

func (serverCredentials) ServerIdentity() (*identity.Identity, error) {
	return identity.NewIdentity(strings.Repeat("33", 32))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repoManager := inmemory.NewRepoManager()
	t.Cleanup(repoManager.Close)

	svc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Address:     "localhost:0",
		IssuerSvc:   application.NewIssuerService(repoManager),
		InvoiceSvc:  application.NewInvoiceService(repoManager),
		TransferSvc: application.NewTransferService(repoManager, nil),
		BlobSvc:     application.NewBlobService(repoManager),
		IdentitySvc: application.NewIdentityService(serverCredentials{}),
	})
	require.NoError(t, err)

	server := httptest.NewServer(svc.Handler())
	t.Cleanup(server.Close)
	return server
}

func doRequest(
	t *testing.T, server *httptest.Server,
	method, path, bearer string, body interface{},
) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	if len(bearer) > 0 {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, payload
}

func TestTransferLifecycleOverHTTP(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	status, payload := doRequest(t, server, http.MethodPost, "/v1/issue", payerKey, map[string]interface{}{
		"ticker":    "TICK",
		"name":      "Ticker Asset",
		"precision": 2,
		"supply":    "10.00",
		"seal":      fmt.Sprintf("tapret1st:%s:0", genesisTxID),
		"iface":     "SPA20",
	})
	require.Equal(t, http.StatusOK, status, string(payload))
	var contract struct {
		ContractID string
	}
	require.NoError(t, json.Unmarshal(payload, &contract))
	require.NotEmpty(t, contract.ContractID)

	status, payload = doRequest(t, server, http.MethodPost, "/v1/invoice", receiverKey, map[string]interface{}{
		"contract_id": contract.ContractID,
		"iface":       "SPA20",
		"amount":      "2.50",
		"seal":        fmt.Sprintf("opret1st:%s:1", invoiceTxID),
	})
	require.Equal(t, http.StatusOK, status, string(payload))
	var invoice struct {
		Invoice string
	}
	require.NoError(t, json.Unmarshal(payload, &invoice))

	status, payload = doRequest(t, server, http.MethodPost, "/v1/psbt", payerKey, map[string]interface{}{
		"invoice": invoice.Invoice,
	})
	require.Equal(t, http.StatusOK, status, string(payload))
	var unsigned struct {
		PsbtBase64 string
	}
	require.NoError(t, json.Unmarshal(payload, &unsigned))

	status, payload = doRequest(t, server, http.MethodPost, "/v1/pay", payerKey, map[string]interface{}{
		"psbt": unsigned.PsbtBase64,
	})
	require.Equal(t, http.StatusOK, status, string(payload))
	var signed struct {
		Consignment string
	}
	require.NoError(t, json.Unmarshal(payload, &signed))

	status, payload = doRequest(t, server, http.MethodPost, "/v1/accept", receiverKey, map[string]interface{}{
		"consignment": signed.Consignment,
	})
	require.Equal(t, http.StatusOK, status, string(payload))
	var result struct {
		Accepted bool
	}
	require.NoError(t, json.Unmarshal(payload, &result))
	require.True(t, result.Accepted)

	// Paying the consumed invoice again conflicts.
	status, _ = doRequest(t, server, http.MethodPost, "/v1/psbt", payerKey, map[string]interface{}{
		"invoice": invoice.Invoice,
	})
	require.Equal(t, http.StatusConflict, status)
}

func TestAuthentication(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	status, _ := doRequest(t, server, http.MethodGet, "/v1/contracts", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = doRequest(t, server, http.MethodGet, "/v1/contracts", "nothex", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = doRequest(t, server, http.MethodGet, "/v1/contracts", payerKey, nil)
	require.Equal(t, http.StatusOK, status)
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	status, _ := doRequest(t, server, http.MethodPost, "/v1/psbt", payerKey, map[string]interface{}{
		"invoice": "not an invoice",
	})
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, server, http.MethodPost, "/v1/invoice", receiverKey, map[string]interface{}{
		"contract_id": "unknown",
		"iface":       "SPA20",
		"amount":      "1",
		"seal":        fmt.Sprintf("opret1st:%s:1", invoiceTxID),
	})
	require.Equal(t, http.StatusNotFound, status)

	status, _ = doRequest(t, server, http.MethodGet, "/v1/blob/missing", payerKey, nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestBlobAndKeyEndpoints(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	payerIdent, err := identity.NewIdentity(payerKey)
	require.NoError(t, err)

	req, err := http.NewRequest(
		http.MethodPost, server.URL+"/v1/blob/wallet.backup",
		bytes.NewReader([]byte("opaque payload")),
	)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+payerKey)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	status, payload := doRequest(t, server, http.MethodGet, "/v1/blob/wallet.backup", payerKey, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []byte("opaque payload"), payload)

	// Another identity has its own namespace.
	status, _ = doRequest(t, server, http.MethodGet, "/v1/blob/wallet.backup", receiverKey, nil)
	require.Equal(t, http.StatusNotFound, status)

	// The handoff path: the counterparty fetches the payload by the owner's
	// public key.
	status, payload = doRequest(
		t, server, http.MethodGet,
		"/v1/blob/"+payerIdent.Public()+"/wallet.backup", receiverKey, nil,
	)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []byte("opaque payload"), payload)

	status, _ = doRequest(
		t, server, http.MethodGet, "/v1/blob/notapubkey/wallet.backup",
		receiverKey, nil,
	)
	require.Equal(t, http.StatusBadRequest, status)

	status, payload = doRequest(
		t, server, http.MethodGet, "/v1/key/"+payerIdent.Public(), "", nil,
	)
	require.Equal(t, http.StatusOK, status)
	var key struct {
		PublicKey    string `json:"public_key"`
		SharedSecret string `json:"shared_secret"`
	}
	require.NoError(t, json.Unmarshal(payload, &key))

	// The derivation is symmetric: the caller derives the same secret from
	// the server's public key.
	serverPubkey, err := identity.ParsePublicKey(key.PublicKey)
	require.NoError(t, err)
	expected := payerIdent.SharedSecret(serverPubkey)
	require.Equal(t, fmt.Sprintf("%x", expected[:]), key.SharedSecret)
}
