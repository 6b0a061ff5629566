package storage

import (
	"context"
	"errors"
)

// Well-known keys for the persisted state blobs. Version suffixes allow a
// format change to start from a clean slate instead of migrating.
const (
	KeyHistory     = "priceHistoryV1"
	KeyAlerts      = "priceAlertsV1"
	KeySettings    = "pollSettingsV1"
	KeyFilingsSeen = "filingsSeenV2"
	KeyFilings     = "filingsCacheV2"
	KeyNews        = "newsCacheV1"
	KeyPress       = "pressCacheV1"
	KeyCryptoNews  = "cryptoNewsCacheV1"
	KeyCryptoPress = "cryptoPressCacheV1"
	KeyEvents      = "eventsCacheV1"
)

// ErrNotConfigured indicates the backing database was not initialised.
var ErrNotConfigured = errors.New("storage: not configured")

// StringStore is an opaque persistent key/value store. Consumers treat a
// missing key and an unparseable value the same way: as empty state.
type StringStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}
