/*
Package session serializes access to the steppers of concurrent sessions.

A Manager keeps one Stepper per session id behind a reference-counted mutex, so the
HTTP layer never runs two operations of the same session at once. With a
distributed locker the same guarantee holds across replicas; in that mode every
operation reopens the session from the shared cache so no replica works on a stale
copy.
*/
package session
