// Package scheduler tracks pending reminder fires as name-keyed one-shot
// timers.
//
// Jobs are registered under the reminder id. Registering the same name again
// replaces the previous timer (upsert), and a version counter makes sure a
// timer that was already dispatched for a replaced registration is ignored.
// The scheduler holds no durable state; the reminder store is the source of
// truth and the job set is rebuilt from it at startup.
//
// A timestamp already in the past is accepted and fires as soon as
// practicable. Startup reconciliation filters past-due records before
// scheduling, but the scheduler does not assume that happened.
package scheduler
