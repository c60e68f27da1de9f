package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ParticipantAuthKey returns the cache key for a participant's login session.
func (r *CacheKeyStruct) ParticipantAuthKey(participantID int) string {
	return fmt.Sprintf("login:%d", participantID)
}

// ExamPaperKey returns the cache key for an exam's participant-facing paper.
func (r *CacheKeyStruct) ExamPaperKey(examID string) string {
	return fmt.Sprintf("exam:%s:paper", examID)
}

// SessionStartKey returns the cache key for an attempt's start timestamp.
func (r *CacheKeyStruct) SessionStartKey(sessionID string) string {
	return fmt.Sprintf("session:%s:started_at", sessionID)
}

// ParticipantActiveSessionKey returns the cache key for a participant's
// currently running attempt on an exam.
func (r *CacheKeyStruct) ParticipantActiveSessionKey(examID string, participantID int) string {
	return fmt.Sprintf("participant:%d:exam:%s:active_session", participantID, examID)
}

var CacheKey = NewCacheKeyStruct()
