/*
Package session implements session management and persistence orchestration.

It serializes read-modify-write cycles on calculator sessions, so concurrent
key-presses on the same session (from several HTTP requests, websocket frames
or replicas) are applied one after another instead of overwriting each other.
Local mutexes are reference counted; an optional distributed locker extends the
guarantee across replicas sharing a store.
*/
package session
