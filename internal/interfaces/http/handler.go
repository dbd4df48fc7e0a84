package httpinterface

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/sealpay-network/sealpay-daemon/internal/core/application"
	"github.com/sealpay-network/sealpay-daemon/pkg/identity"
	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
)

// maxBlobSize bounds the payload accepted by the blob endpoints.
const maxBlobSize = 16 << 20

type handler struct {
	issuerSvc   application.IssuerService
	invoiceSvc  application.InvoiceService
	transferSvc application.TransferService
	blobSvc     application.BlobService
	identitySvc application.IdentityService
}

type identityHandlerFunc func(
	w http.ResponseWriter, req *http.Request, ident *identity.Identity,
)

// authenticated resolves the caller identity from the bearer token, a
// hex-encoded secp256k1 private key. The key authenticates the request and
// scopes the state it operates on, it is never stored.
func (h *handler) authenticated(next identityHandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		auth := req.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing bearer identity key")
			return
		}
		ident, err := identity.NewIdentity(strings.TrimSpace(token))
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next(w, req, ident)
	})
}

type issueRequest struct {
	Ticker      string `json:"ticker"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Precision   uint32 `json:"precision"`
	Supply      string `json:"supply"`
	Seal        string `json:"seal"`
	Interface   string `json:"iface"`
}

func (h *handler) issue(
	w http.ResponseWriter, req *http.Request, ident *identity.Identity,
) {
	var body issueRequest
	if !decodeJSON(w, req, &body) {
		return
	}

	contract, err := h.issuerSvc.IssueContract(
		req.Context(), ident,
		body.Ticker, body.Name, body.Description, body.Precision, body.Supply,
		body.Seal, body.Interface,
	)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contract)
}

type invoiceRequest struct {
	ContractID string `json:"contract_id"`
	Interface  string `json:"iface"`
	Amount     string `json:"amount"`
	Seal       string `json:"seal"`
}

func (h *handler) createInvoice(
	w http.ResponseWriter, req *http.Request, ident *identity.Identity,
) {
	var body invoiceRequest
	if !decodeJSON(w, req, &body) {
		return
	}

	invoice, err := h.invoiceSvc.CreateInvoice(
		req.Context(), ident,
		body.ContractID, body.Interface, body.Amount, body.Seal,
	)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

type psbtRequest struct {
	Invoice string `json:"invoice"`
}

func (h *handler) createPsbt(
	w http.ResponseWriter, req *http.Request, ident *identity.Identity,
) {
	var body psbtRequest
	if !decodeJSON(w, req, &body) {
		return
	}

	unsigned, err := h.transferSvc.CreatePsbt(req.Context(), ident, body.Invoice)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, unsigned)
}

type payRequest struct {
	Psbt string `json:"psbt"`
}

func (h *handler) pay(
	w http.ResponseWriter, req *http.Request, ident *identity.Identity,
) {
	var body payRequest
	if !decodeJSON(w, req, &body) {
		return
	}

	signed, err := h.transferSvc.Pay(req.Context(), ident, body.Psbt)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, signed)
}

type acceptRequest struct {
	Consignment string `json:"consignment"`
	// Seal optionally discloses the revealed payment seal when the receiver
	// did not create the invoice locally.
	Seal *seal.Revealed `json:"seal,omitempty"`
}

func (h *handler) accept(
	w http.ResponseWriter, req *http.Request, ident *identity.Identity,
) {
	var body acceptRequest
	if !decodeJSON(w, req, &body) {
		return
	}

	result, err := h.transferSvc.AcceptTransfer(
		req.Context(), ident, body.Consignment, body.Seal,
	)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !result.Accepted {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) listContracts(
	w http.ResponseWriter, req *http.Request, ident *identity.Identity,
) {
	contracts, err := h.issuerSvc.ListContracts(req.Context(), ident)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contracts)
}

func (h *handler) listInvoices(
	w http.ResponseWriter, req *http.Request, ident *identity.Identity,
) {
	invoices, err := h.invoiceSvc.ListInvoices(req.Context(), ident)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (h *handler) listTransfers(
	w http.ResponseWriter, req *http.Request, ident *identity.Identity,
) {
	transfers, err := h.transferSvc.ListTransfers(req.Context(), ident)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transfers)
}

func (h *handler) listInterfaces(w http.ResponseWriter, req *http.Request) {
	interfaces, err := h.issuerSvc.ListInterfaces(req.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, interfaces)
}

func (h *handler) listSchemas(w http.ResponseWriter, req *http.Request) {
	schemas, err := h.issuerSvc.ListSchemas(req.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schemas)
}

type keyResponse struct {
	PublicKey    string `json:"public_key"`
	SharedSecret string `json:"shared_secret"`
}

func (h *handler) deriveKey(w http.ResponseWriter, req *http.Request) {
	secret, err := h.identitySvc.DeriveSharedSecret(
		req.Context(), req.PathValue("pubkey"),
	)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pubkey, err := h.identitySvc.PublicKey(req.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, keyResponse{
		PublicKey:    pubkey,
		SharedSecret: secret,
	})
}

func (h *handler) putBlob(
	w http.ResponseWriter, req *http.Request, ident *identity.Identity,
) {
	data, err := io.ReadAll(io.LimitReader(req.Body, maxBlobSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read payload")
		return
	}

	if err := h.blobSvc.PutBlob(
		req.Context(), ident, req.PathValue("name"), data,
	); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": req.PathValue("name")})
}

func (h *handler) getBlob(
	w http.ResponseWriter, req *http.Request, ident *identity.Identity,
) {
	data, err := h.blobSvc.GetBlob(
		req.Context(), ident.Public(), req.PathValue("name"),
	)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeBlob(w, data)
}

func (h *handler) getBlobFrom(
	w http.ResponseWriter, req *http.Request, _ *identity.Identity,
) {
	data, err := h.blobSvc.GetBlob(
		req.Context(), req.PathValue("pubkey"), req.PathValue("name"),
	)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeBlob(w, data)
}

func writeBlob(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func decodeJSON(w http.ResponseWriter, req *http.Request, target interface{}) bool {
	if err := json.NewDecoder(req.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
