package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionSnapshotKey returns the cache key holding the persisted session snapshot
func (r *CacheKeyStruct) SessionSnapshotKey(persistenceKey string) string {
	return fmt.Sprintf("snapshot:%s", persistenceKey)
}

// ExamMonitorChannel returns the Redis PubSub channel name for the proctor monitor
func (r *CacheKeyStruct) ExamMonitorChannel(persistenceKey string) string {
	return fmt.Sprintf("exam:%s:monitor", persistenceKey)
}

var CacheKey = NewCacheKeyStruct()
