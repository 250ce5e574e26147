// Package janitor runs periodic housekeeping for the limits subsystem.
//
// Two optional jobs are scheduled with cron syntax:
//
//   - sweep: drops rate limit buckets whose window has ended
//   - cleanup: deletes usage counters from past periods
//
// Both are off unless a schedule is configured. Without the sweep, buckets
// live for the life of the process.
package janitor
