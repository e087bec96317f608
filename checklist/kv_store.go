// ABOUTME: Key-value checklist backend for badger and Charm Cloud
// ABOUTME: Stores one JSON value per date under the "checklist:" prefix
package checklist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jaksim/jaksim/charm"
	"github.com/jaksim/jaksim/models"
)

const keyPrefix = "checklist:"

// KVStore keeps one key per date in a charm.Client.
type KVStore struct {
	kv *charm.Client
}

// NewKVStore wraps kv. The store owns kv and closes it.
func NewKVStore(kv *charm.Client) *KVStore {
	return &KVStore{kv: kv}
}

// Client exposes the underlying key-value client for sync commands.
func (s *KVStore) Client() *charm.Client {
	return s.kv
}

func (s *KVStore) Load(_ context.Context) (Book, error) {
	keys, err := s.kv.KeysWithPrefix(keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list checklist keys: %w", err)
	}

	book := Book{}
	for _, key := range keys {
		data, err := s.kv.Get([]byte(key))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		var entries []models.ChecklistEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		if len(entries) > 0 {
			book[strings.TrimPrefix(key, keyPrefix)] = entries
		}
	}
	return book, nil
}

// Save writes every non-empty date and deletes keys for dates no longer present.
func (s *KVStore) Save(_ context.Context, book Book) error {
	book = book.compact()

	existing, err := s.kv.KeysWithPrefix(keyPrefix)
	if err != nil {
		return fmt.Errorf("failed to list checklist keys: %w", err)
	}
	for _, key := range existing {
		if _, keep := book[strings.TrimPrefix(key, keyPrefix)]; keep {
			continue
		}
		if err := s.kv.Delete([]byte(key)); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}

	for _, date := range book.Dates() {
		data, err := json.Marshal(book[date])
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", date, err)
		}
		if err := s.kv.Set([]byte(keyPrefix+date), data); err != nil {
			return fmt.Errorf("failed to write %s: %w", date, err)
		}
	}
	return nil
}

func (s *KVStore) Close() error {
	return s.kv.Close()
}
