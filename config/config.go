package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/sealpay-network/sealpay-daemon/pkg/explorer"
	"github.com/sealpay-network/sealpay-daemon/pkg/explorer/esplora"
)

const (
	// PortKey is the port where the HTTP interface will listen on.
	PortKey = "PORT"
	// DatadirKey is the local data directory to store the internal state of
	// the daemon.
	DatadirKey = "DATA_DIR_PATH"
	// LogLevelKey are the different logging levels. For reference on the
	// values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DbTypeKey is the storage backend, either "badger" or "inmemory".
	DbTypeKey = "DB_TYPE"
	// ExplorerEndpointKey is the endpoint of the Esplora REST API used to
	// broadcast witness transactions. Empty disables broadcasting.
	ExplorerEndpointKey = "EXPLORER_ENDPOINT"
	// ExplorerRequestTimeoutKey are the milliseconds to wait for HTTP
	// responses before timeouts.
	ExplorerRequestTimeoutKey = "EXPLORER_REQUEST_TIMEOUT"
	// IdentityKeyKey is the hex-encoded private key the daemon uses as its
	// own identity for shared-secret derivation.
	IdentityKeyKey = "IDENTITY_KEY"
	// IdentityKeyFileKey is the path of a file holding the daemon identity
	// key, preferred over passing the key itself through the environment.
	IdentityKeyFileKey = "IDENTITY_KEY_FILE"

	DbLocation = "db"

	DbTypeBadger   = "badger"
	DbTypeInMemory = "inmemory"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("sealpay-daemon", false)

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("SEALPAY")
	vip.AutomaticEnv()

	vip.SetDefault(PortKey, 7070)
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DbTypeKey, DbTypeBadger)
	vip.SetDefault(ExplorerEndpointKey, "")
	vip.SetDefault(ExplorerRequestTimeoutKey, 15000)

	if err := validate(); err != nil {
		log.WithError(err).Panic("error while validating config")
	}

	if err := initDatadir(); err != nil {
		log.WithError(err).Panic("error while creating datadir")
	}
}

// GetString ...
func GetString(key string) string {
	return vip.GetString(key)
}

// GetInt ...
func GetInt(key string) int {
	return vip.GetInt(key)
}

// GetDuration ...
func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

// Set a value for the given key.
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

// IsSet returns whether the given key is set.
func IsSet(key string) bool {
	return vip.IsSet(key)
}

// GetDatadir ...
func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetDbDir returns the directory holding the badger store.
func GetDbDir() string {
	return filepath.Join(GetDatadir(), DbLocation)
}

// GetExplorer returns the configured explorer service, or nil when
// broadcasting is disabled.
func GetExplorer() (explorer.Service, error) {
	endpoint := GetString(ExplorerEndpointKey)
	if len(endpoint) <= 0 {
		return nil, nil
	}
	requestTimeout := time.Duration(GetInt(ExplorerRequestTimeoutKey)) * time.Millisecond
	return esplora.NewService(endpoint, requestTimeout)
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	dbType := GetString(DbTypeKey)
	if dbType != DbTypeBadger && dbType != DbTypeInMemory {
		return fmt.Errorf(
			"db type must be either '%s' or '%s'", DbTypeBadger, DbTypeInMemory,
		)
	}

	if endpoint := GetString(ExplorerEndpointKey); endpoint != "" {
		if _, err := url.Parse(endpoint); err != nil {
			return fmt.Errorf("explorer endpoint is not a valid url: %s", err)
		}
	}
	return nil
}

func initDatadir() error {
	return makeDirectoryIfNotExists(GetDbDir())
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
