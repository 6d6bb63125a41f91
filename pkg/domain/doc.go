/*
Package domain contains the core domain models shared across the Taiga bridge.

It defines the error taxonomy for the session runtime (authentication, session
lifetime, rate limiting, API and configuration failures), the Clock abstraction
used to make time-dependent behavior testable, and the durable session record.
This package is kept pure and free of I/O so every other package can depend on
it without dragging in transport or persistence concerns.
*/
package domain
