package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentLoginKey returns the cache key for a student's login session
func (r *CacheKeyStruct) StudentLoginKey(studentID int) string {
	return fmt.Sprintf("login:student:%d", studentID)
}

// SessionCodeKey returns the cache key for a session's current code and expiry
func (r *CacheKeyStruct) SessionCodeKey(sessionID string) string {
	return fmt.Sprintf("session:%s:code", sessionID)
}

// SessionMonitorChannel returns the Redis PubSub channel for a session's live check-in feed
func (r *CacheKeyStruct) SessionMonitorChannel(sessionID string) string {
	return fmt.Sprintf("session:%s:monitor", sessionID)
}

var CacheKey = NewCacheKeyStruct()
