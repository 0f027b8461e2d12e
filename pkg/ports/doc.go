/*
Package ports defines the driven ports (interfaces) for the Abacus hosts.

These interfaces decouple session handling from storage backends, so the HTTP
and MCP servers can keep sessions in memory or share them across replicas.

# Key Interfaces

  - StateStore: Responsible for persisting and loading session State.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
*/
package ports
