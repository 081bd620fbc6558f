/*
Package ports defines the driven ports (interfaces) of the Spokesperson engine.

These interfaces decouple the progression logic from external implementations,
allowing the engine to work with various storage backends and completion providers.

# Key Interfaces

  - StateStore: Persists and loads the ConversationState of a session.
  - AnswerLog: Append-only audit trail of accepted answers.
  - Completer: The external text-completion service.
  - DistributedLocker: Distributed locking for concurrent session access.
*/
package ports
