// ABOUTME: Key-value client for the charm and badger checklist backends
// ABOUTME: Wraps Charm Cloud KV or a local BadgerDB directory behind one API

package charm

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
)

const (
	// DefaultCharmHost is the self-hosted 2389 research server.
	DefaultCharmHost = "charm.2389.dev"

	// DefaultName is the Charm KV database name.
	DefaultName = "jaksim"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("key not found")

// Options configures a Charm Cloud client.
type Options struct {
	// Host is the charm server hostname (default: charm.2389.dev)
	Host string
	// Name is the KV database name (default: jaksim)
	Name string
	// AutoSync syncs after every write and once on open.
	AutoSync bool
}

// store is the subset of charm/kv.KV the client needs.
type store interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
}

// Client is a thread-safe key-value client.
type Client struct {
	kv       store
	closer   func() error
	autoSync bool
	remote   bool
	mu       sync.RWMutex
}

// Open connects to Charm Cloud KV. Authentication uses the local charm SSH keys.
func Open(opts Options) (*Client, error) {
	if opts.Host == "" {
		opts.Host = DefaultCharmHost
	}
	if opts.Name == "" {
		opts.Name = DefaultName
	}

	// charm reads the server from the environment
	_ = os.Setenv("CHARM_HOST", opts.Host)

	db, err := kv.OpenWithDefaults(opts.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	c := &Client{
		kv:       db,
		closer:   func() error { return nil },
		autoSync: opts.AutoSync,
		remote:   true,
	}

	// Sync on startup to pull remote changes
	if opts.AutoSync {
		_ = db.Sync()
	}

	return c, nil
}

// OpenLocal opens a BadgerDB directory with no remote sync.
func OpenLocal(dir string) (*Client, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create kv directory: %w", err)
	}

	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &Client{
		kv:     &localKV{db: db},
		closer: db.Close,
	}, nil
}

// Remote reports whether the client syncs with Charm Cloud.
func (c *Client) Remote() bool {
	return c.remote
}

// Close releases the underlying database.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	// charm/kv doesn't expose Close(); its BadgerDB is released on exit
	return c.closer()
}

// ID returns the charm user ID for this device.
func (c *Client) ID() (string, error) {
	if !c.remote {
		return "", errors.New("local store has no charm identity")
	}
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// Sync performs a manual sync with the charm server. No-op for local stores.
func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Sync()
}

// Get retrieves a value by key.
func (c *Client) Get(key []byte) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, err := c.kv.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return val, err
}

// Set stores a value and syncs if enabled.
func (c *Client) Set(key, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Set(key, value); err != nil {
		return err
	}

	// Sync while still holding lock to avoid race condition
	if c.autoSync {
		_ = c.kv.Sync()
	}
	return nil
}

// Delete removes a key and syncs if enabled. Deleting a missing key is not an error.
func (c *Client) Delete(key []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}

	if c.autoSync {
		_ = c.kv.Sync()
	}
	return nil
}

// KeysWithPrefix returns all keys starting with the given prefix.
func (c *Client) KeysWithPrefix(prefix string) ([]string, error) {
	c.mu.RLock()
	all, err := c.kv.Keys()
	c.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	var matched []string
	for _, k := range all {
		if strings.HasPrefix(string(k), prefix) {
			matched = append(matched, string(k))
		}
	}
	return matched, nil
}

// localKV serves the charm/kv API from a plain BadgerDB directory.
type localKV struct {
	db *badger.DB
}

func (l *localKV) Get(key []byte) ([]byte, error) {
	var result []byte
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		result, err = item.ValueCopy(nil)
		return err
	})
	return result, err
}

func (l *localKV) Set(key, value []byte) error {
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (l *localKV) Delete(key []byte) error {
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (l *localKV) Keys() ([][]byte, error) {
	var keys [][]byte
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	return keys, err
}

func (l *localKV) Sync() error {
	return nil
}
