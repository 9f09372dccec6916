/*
Package session implements session management and persistence orchestration.

It guarantees that at most one driver advances a given thread at a time,
combining an in-process reference counted lock table with an optional
distributed locker for multi-replica deployments. Contention is reported as
domain.ErrConflict instead of waiting.
*/
package session
