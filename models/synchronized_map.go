package models

import (
	"sync"
)

// SynchronizedMap is a map structure that can be shared across go
// routines and threads. Both keys and values are strings. The audit
// recorder uses one of these to track which entries are currently
// being written to the side store, so a redelivered queue message
// doesn't start a second write for the same entry.
type SynchronizedMap struct {
	data  map[string]string
	mutex *sync.RWMutex
}

// Creates a new empty SynchronizedMap
func NewSynchronizedMap() *SynchronizedMap {
	return &SynchronizedMap{
		data:  make(map[string]string),
		mutex: &sync.RWMutex{},
	}
}

// Returns true if the key exists in the map.
func (syncMap *SynchronizedMap) HasKey(key string) bool {
	syncMap.mutex.RLock()
	_, hasKey := syncMap.data[key]
	syncMap.mutex.RUnlock()
	return hasKey
}

// Adds a key/value pair to the map.
func (syncMap *SynchronizedMap) Add(key, value string) {
	syncMap.mutex.Lock()
	syncMap.data[key] = value
	syncMap.mutex.Unlock()
}

// Returns the value of key from the map.
func (syncMap *SynchronizedMap) Get(key string) string {
	syncMap.mutex.RLock()
	value, _ := syncMap.data[key]
	syncMap.mutex.RUnlock()
	return value
}

// Deletes the specified key from the map.
func (syncMap *SynchronizedMap) Delete(key string) {
	syncMap.mutex.Lock()
	delete(syncMap.data, key)
	syncMap.mutex.Unlock()
}

// Returns a slice of all keys in the map.
func (syncMap *SynchronizedMap) Keys() []string {
	syncMap.mutex.RLock()
	keys := make([]string, 0, len(syncMap.data))
	for key, _ := range syncMap.data {
		keys = append(keys, key)
	}
	syncMap.mutex.RUnlock()
	return keys
}
