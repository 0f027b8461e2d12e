/*
Package domain contains the core domain models of the Abacus calculator engine.

It defines the vocabulary shared by the engine and its hosts: key-press events,
the serializable session State, history entries, lifecycle events and the
sentinel errors. This package is kept pure and free of I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - Key: A typed key-press (digit, operator, function, control) parsed from a button label.
  - State: Captures the snapshot of a session (Buffer, Preview, Pending flag, History).
  - HistoryEntry: An immutable (expression, result) pair recorded on a successful finalize.
  - StateDiff: The minimal set of changes between two snapshots, for push updates.
*/
package domain
