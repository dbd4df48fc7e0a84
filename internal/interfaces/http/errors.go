package httpinterface

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/sealpay-network/sealpay-daemon/internal/core/application"
	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
	"github.com/sealpay-network/sealpay-daemon/pkg/identity"
	"github.com/sealpay-network/sealpay-daemon/pkg/psbtutil"
	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
	"github.com/sealpay-network/sealpay-daemon/pkg/transition"
)

// Validation errors of the core layers, reported as 400.
var badRequestErrors = []error{
	domain.ErrContractInvalidTicker,
	domain.ErrContractInvalidName,
	domain.ErrContractInvalidPrecision,
	domain.ErrContractInvalidSupply,
	domain.ErrContractInvalidInterface,
	domain.ErrInvoiceInvalidAmount,
	domain.ErrInvalidInvoiceString,
	application.ErrContractUnknownInterface,
	application.ErrAmountNotRepresentable,
	application.ErrInvalidResourceName,
	identity.ErrInvalidPublicKey,
	seal.ErrInvalidCloseMethod,
	seal.ErrInvalidOutpoint,
	seal.ErrInvalidDescriptor,
	seal.ErrInvalidConcealedSeal,
	psbtutil.ErrInvalidPsbt,
	psbtutil.ErrTransitionNotFound,
	transition.ErrInvalidConsignment,
}

// Conflicts with the current state of a resource, reported as 409.
var conflictErrors = []error{
	domain.ErrInvoiceAlreadyConsumed,
	domain.ErrAllocationAlreadySpent,
	domain.ErrAllocationLocked,
	application.ErrTransferNotPending,
}

var notFoundErrors = []error{
	domain.ErrContractNotFound,
	domain.ErrInvoiceNotFound,
	domain.ErrAllocationNotFound,
	domain.ErrTransferNotFound,
	domain.ErrBlobNotFound,
}

// writeServiceError maps a core error to an HTTP status. Errors outside the
// taxonomy are internal: the response carries a generic message and the
// detail goes to the log only.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case matchesAny(err, badRequestErrors):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, application.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, application.ErrSigningKeyNotOwned):
		writeError(w, http.StatusForbidden, err.Error())
	case matchesAny(err, notFoundErrors):
		writeError(w, http.StatusNotFound, err.Error())
	case matchesAny(err, conflictErrors):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
