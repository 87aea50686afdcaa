/*
Package ports defines the driven ports (interfaces) for the bartender dialog engine.

These interfaces decouple the core dialog logic from external implementations,
allowing the engine to work with various storage backends, catalogs, classifiers
and transports.

# Key Interfaces

  - SessionStore: Persists and loads conversation Sessions.
  - FactsStore: Reads and atomically updates per-user facts.
  - DistributedLocker: Serializes turns of a conversation across replicas.
  - Catalog: Read-only beer catalog lookups.
  - Classifier: Maps inbound text to an intent and entities.
  - ImageSearcher: Finds a picture for a recommended beer.
  - OrderPublisher: Announces placed orders to the rest of the system.
*/
package ports
