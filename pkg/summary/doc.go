/*
Package summary turns collected answers into the closing message of a conversation.

Two strategies are available:

  - TemplateBuilder renders a deterministic text/template with per-key fallbacks.
    It never fails and does not depend on any provider.
  - CompletionBuilder asks the completion service for a generated summary and
    falls back to the template when the provider times out, rejects the
    credentials, rate limits the call or returns an unusable response.

FollowUpWriter uses the same provider to phrase the next question conversationally.
*/
package summary
