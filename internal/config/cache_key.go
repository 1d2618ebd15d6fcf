package config

import "fmt"

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CandidateSessionKey returns the cache key holding a candidate's login JTI.
func (r *CacheKeyStruct) CandidateSessionKey(candidateID string) string {
	return fmt.Sprintf("login:candidate:%s", candidateID)
}

// InterviewControlChannel returns the Pub/Sub channel for server-initiated
// control messages (forced termination) for one interview.
func (r *CacheKeyStruct) InterviewControlChannel(interviewID string) string {
	return fmt.Sprintf("interview:%s:control", interviewID)
}

var CacheKey = NewCacheKeyStruct()
