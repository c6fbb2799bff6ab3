package domain

import "time"

// BatchSummary is what the operator sees before a run mutates any remote
// state: how many accounts would be created, and under which usernames.
type BatchSummary struct {
	Group     string
	Count     int
	Usernames []string
}

// BatchOutcome accumulates the result of one batch run.
type BatchOutcome struct {
	Attempted     int
	Created       int
	GroupFailures int
	Aborted       bool
	Events        []string
	Elapsed       time.Duration
}
