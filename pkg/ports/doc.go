/*
Package ports defines the driven ports (interfaces) for the Cartwise engine.

These interfaces decouple the pipeline from external implementations, allowing
the engine to work with various storage backends, language models, search
providers and carts.

# Key Interfaces

  - CheckpointStore: Persists session checkpoints with version compare-and-swap.
  - DistributedLocker: Provides distributed locking for concurrent session access.
  - TextGenerator: Produces untrusted text from a prompt.
  - Searcher: Runs web searches for product discovery.
  - CartBuilder: Turns the final selection into a cart URL.
*/
package ports
