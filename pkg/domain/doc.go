/*
Package domain contains the core domain models of the Cartwise pipeline.

It defines the shared shopping state threaded through every stage, the
checkpoints that make sessions durable, and the review payloads surfaced to a
human when a stage suspends. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - State: The shared record (items, budget, categories, products, selection, cart).
  - Patch: A partial update a stage hands back; the driver applies it.
  - Checkpoint: The persisted snapshot of a session at a stage boundary.
  - Review: The payload of a human-in-the-loop suspension.
  - Outcome: What Start and Resume hand back to the caller.
*/
package domain
