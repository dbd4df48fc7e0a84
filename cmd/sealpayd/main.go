package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sealpay-network/sealpay-daemon/config"
	"github.com/sealpay-network/sealpay-daemon/internal/core/application"
	"github.com/sealpay-network/sealpay-daemon/internal/core/ports"
	"github.com/sealpay-network/sealpay-daemon/internal/infrastructure/credential"
	dbbadger "github.com/sealpay-network/sealpay-daemon/internal/infrastructure/storage/db/badger"
	"github.com/sealpay-network/sealpay-daemon/internal/infrastructure/storage/db/inmemory"
	httpinterface "github.com/sealpay-network/sealpay-daemon/internal/interfaces/http"
)

func main() {
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	repoManager, err := newRepoManager()
	if err != nil {
		log.WithError(err).Panic("error while opening db")
	}
	defer repoManager.Close()

	explorerSvc, err := config.GetExplorer()
	if err != nil {
		log.WithError(err).Panic("error while setting up explorer")
	}
	if explorerSvc == nil {
		log.Warn("no explorer configured, witness transactions are not broadcast")
	}

	credentialProvider, err := credential.NewProvider(
		config.GetString(config.IdentityKeyKey),
		config.GetString(config.IdentityKeyFileKey),
	)
	if err != nil {
		log.WithError(err).Panic("error while setting up credentials")
	}

	address := fmt.Sprintf(":%d", config.GetInt(config.PortKey))
	httpSvc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Address:     address,
		IssuerSvc:   application.NewIssuerService(repoManager),
		InvoiceSvc:  application.NewInvoiceService(repoManager),
		TransferSvc: application.NewTransferService(repoManager, explorerSvc),
		BlobSvc:     application.NewBlobService(repoManager),
		IdentitySvc: application.NewIdentityService(credentialProvider),
	})
	if err != nil {
		log.WithError(err).Panic("error while setting up http interface")
	}

	log.Debug("starting daemon")

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(httpSvc.Start)
	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		select {
		case <-sigChan:
		case <-ctx.Done():
			return ctx.Err()
		}

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), 30*time.Second,
		)
		defer cancel()
		return httpSvc.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.WithError(err).Error("daemon exited with error")
	}
	log.Debug("exiting")
}

func newRepoManager() (ports.RepoManager, error) {
	if config.GetString(config.DbTypeKey) == config.DbTypeInMemory {
		return inmemory.NewRepoManager(), nil
	}
	return dbbadger.NewRepoManager(config.GetDbDir(), nil)
}
