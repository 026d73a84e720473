// Package storage provides the durable string key/value store that backs
// thread persistence. The interface mirrors browser-style local storage:
// flat string keys, string values, synchronous writes.
package storage

import "errors"

// ErrNotFound is returned by Get when the key has never been set.
var ErrNotFound = errors.New("key not found")

// Store is a durable string key/value store. Set must complete the write
// before returning; a mutation is not considered persisted until then.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	Keys() []string
}
