/*
Package ports defines the driven ports (interfaces) for the parley engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various storage backends.

# Key Interfaces

  - StateStore: Responsible for persisting and loading interview snapshots
    by content-addressed key.

The package also provides RunStateStoreContract, a reusable test suite every
StateStore implementation is expected to pass.
*/
package ports
