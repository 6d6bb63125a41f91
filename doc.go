/*
Package taigamcp is a bridge between MCP tool hosts and the Taiga
project-management API.

An agent connects over stdio or SSE and drives Taiga through tool calls:
it logs in (or relies on the auto-authenticated default session), then
lists, creates, updates and deletes projects, epics, user stories, tasks,
issues, sprints and wiki pages. Each session owns one authenticated
connection with a pooled transport, a per-minute rate limit and a bounded
retry policy; sessions expire on a TTL and can optionally be persisted to
redis so they survive a restart.

The root package only carries shared metadata. The runtime lives under
pkg/ and the entrypoint under cmd/taiga-mcp.
*/
package taigamcp
