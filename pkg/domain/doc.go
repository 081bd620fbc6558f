/*
Package domain contains the core models of the Spokesperson profile builder.

It defines the question catalog that drives a conversation, the per-session
conversation state, the result of submitting an answer and the error taxonomy
shared by the engine and its adapters. The package is kept pure and free of
I/O so that transports and storage can be swapped without touching it.

# Key Entities

  - QuestionSpec: One immutable question (prompt, answer type, key, choices).
  - Catalog: The ordered, read-only list of questions.
  - ConversationState: The cursor (Stage) and collected Answers of one session.
  - ProgressionResult: Either the next question or the closing summary.
  - AnswerRecord: One persisted raw answer, owned by the answer log.
*/
package domain
