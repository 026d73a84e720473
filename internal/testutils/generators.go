// Package testutils provides deterministic generators and utility functions
// for mmchat testing. These utilities ensure consistent test output while
// maintaining production format compatibility.
package testutils

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// Thread-safe counter for deterministic thread ID generation
	threadCounter uint64
	threadMutex   sync.Mutex

	// Last time-derived thread id handed out, to guarantee uniqueness when
	// two threads are created within the same nanosecond tick
	lastThreadNano int64

	// Thread-safe counter for deterministic submission ID generation
	submissionCounter uint64
	submissionMutex   sync.Mutex

	// Thread-safe counter for deterministic timestamp generation
	timeCounter int64
	timeMutex   sync.Mutex
)

// GenerateThreadID generates a thread id that is deterministic in test mode
// but time-derived in production.
// In test mode, returns ids in format: thread_00000001, thread_00000002, etc.
// In production mode, returns thread_<unix_nanos>, bumped forward if two
// calls land on the same clock reading.
func GenerateThreadID(testMode bool) string {
	threadMutex.Lock()
	defer threadMutex.Unlock()

	if testMode {
		threadCounter++
		return fmt.Sprintf("thread_%08d", threadCounter)
	}

	nano := time.Now().UnixNano()
	if nano <= lastThreadNano {
		nano = lastThreadNano + 1
	}
	lastThreadNano = nano
	return fmt.Sprintf("thread_%d", nano)
}

// GenerateSubmissionID generates a correlation id for one outbound
// submission, deterministic in test mode but a random UUID in production.
// In test mode, returns UUIDs in format: 00000001-0000-4000-8000-000000000001.
func GenerateSubmissionID(testMode bool) string {
	if testMode {
		submissionMutex.Lock()
		defer submissionMutex.Unlock()

		submissionCounter++
		return fmt.Sprintf("%08x-0000-4000-8000-%012x", submissionCounter, submissionCounter)
	}
	return uuid.New().String()
}

// GetCurrentTime returns the current time, deterministic in test mode but
// real in production.
// In test mode, returns incrementing time starting from 2025-01-01T00:00:00Z.
func GetCurrentTime(testMode bool) time.Time {
	if testMode {
		timeMutex.Lock()
		defer timeMutex.Unlock()

		timeCounter++
		baseTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		return baseTime.Add(time.Duration(timeCounter) * time.Second)
	}
	return time.Now()
}

// ResetTestCounters resets the deterministic counters for testing.
// This should only be called from test code to ensure consistent test runs.
func ResetTestCounters() {
	threadMutex.Lock()
	submissionMutex.Lock()
	timeMutex.Lock()
	defer threadMutex.Unlock()
	defer submissionMutex.Unlock()
	defer timeMutex.Unlock()

	threadCounter = 0
	submissionCounter = 0
	timeCounter = 0
}
