package application

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
	"github.com/sealpay-network/sealpay-daemon/internal/core/ports"
	"github.com/sealpay-network/sealpay-daemon/pkg/identity"
	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
)

// InvoiceService creates payment requests bound to concealed seals.
type InvoiceService interface {
	CreateInvoice(
		ctx context.Context, ident *identity.Identity,
		contractID, iface, amount, sealDescriptor string,
	) (*InvoiceInfo, error)
	ListInvoices(ctx context.Context, ident *identity.Identity) ([]*domain.Invoice, error)
}

type invoiceService struct {
	repoManager ports.RepoManager
}

// NewInvoiceService returns a new InvoiceService using the given
// repositories.
func NewInvoiceService(repoManager ports.RepoManager) InvoiceService {
	return &invoiceService{repoManager: repoManager}
}

func (s *invoiceService) CreateInvoice(
	ctx context.Context, ident *identity.Identity,
	contractID, iface, amount, sealDescriptor string,
) (*InvoiceInfo, error) {
	contract, err := s.repoManager.ContractRepository().GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.Interface != iface {
		return nil, ErrContractUnknownInterface
	}

	amountBaseUnits, err := parseAmount(amount, contract.Precision)
	if err != nil {
		return nil, err
	}

	outpoint, closeMethod, err := seal.ParseDescriptor(sealDescriptor)
	if err != nil {
		return nil, err
	}
	revealed, concealed, err := seal.Blind(seal.BlindOpts{
		Outpoint:    *outpoint,
		CloseMethod: closeMethod,
	})
	if err != nil {
		return nil, err
	}

	receiver := ident.Public()
	invoice, err := domain.NewInvoice(
		receiver, contractID, iface, amountBaseUnits, revealed,
	)
	if err != nil {
		return nil, err
	}

	unlock := s.repoManager.LockIdentity(receiver)
	defer unlock()

	if err := s.repoManager.InvoiceRepository().AddInvoice(ctx, invoice); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"invoice":  invoice.ID,
		"contract": contractID,
		"amount":   amountBaseUnits,
	}).Info("created new invoice")

	return &InvoiceInfo{
		InvoiceID:     invoice.ID.String(),
		Invoice:       invoice.Encode(),
		ConcealedSeal: concealed.String(),
	}, nil
}

func (s *invoiceService) ListInvoices(
	ctx context.Context, ident *identity.Identity,
) ([]*domain.Invoice, error) {
	return s.repoManager.InvoiceRepository().GetAllInvoicesForIdentity(
		ctx, ident.Public(),
	)
}
