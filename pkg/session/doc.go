/*
Package session implements the authenticated session registry.

A Store maps opaque session identifiers to client handles with time-based
expiry: lookups on an expired entry remove it as a side effect, and a
background Sweeper reclaims idle sessions on a fixed cadence. The registry is
the only shared mutable structure in the runtime; its map is mutex-guarded
while handle teardown and record persistence happen outside the lock.

An optional RecordStore (see pkg/adapters/redis) persists token-level session
records so established sessions survive a process restart.
*/
package session
