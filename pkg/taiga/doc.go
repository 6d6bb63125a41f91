/*
Package taiga implements the outbound client runtime for a Taiga instance.

A Client is one authenticated connection handle: it owns a pooled HTTP
transport configured at creation time (request timeout, connection ceilings)
and the bearer token obtained from the login exchange. Every API operation
funnels through Client.Call, which consults the per-client rate limiter before
each attempt and wraps the network round trip in a bounded
exponential-backoff retry. The per-resource services (Projects, Epics,
UserStories, Tasks, Issues, Milestones, Memberships, Wiki) are pass-through
glue over Call.

Clients are created by Login (fresh credentials) or Resume (a previously
issued token, e.g. from a durable session record) and released with Close.
*/
package taiga
