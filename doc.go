/*
Package spokesperson builds a user's profile through a short guided conversation.

A fixed, ordered catalog of questions drives the conversation. Each answer is
validated against the current question (free text, positive number or one of
a set of choices); accepted answers advance the session and are appended to an
audit log, rejected ones leave the session untouched so the same question is
asked again. After the last question a closing summary is produced, either from
a deterministic template or by a text-completion provider with the template as
fallback, and the session is reset so it can be reused.

# Usage

	svc, err := spokesperson.New(
		spokesperson.WithAnswerLog(memory.NewAnswerLog()),
	)
	if err != nil {
		log.Fatal(err)
	}

	turn, _ := svc.Start(ctx, "", "")
	fmt.Println(turn.Prompt()) // Welcome! What is your name?

	res, err := svc.Submit(ctx, turn.SessionID, "Alice")
	var invalid *domain.InvalidAnswerError
	if errors.As(err, &invalid) {
		fmt.Println(invalid.Reason)
	}
	fmt.Println(res.Prompt) // How old are you?

# Transports

The same Service is served over HTTP with SSE and WebSocket channels
(pkg/adapters/http), as MCP tools (pkg/adapters/mcp) and as an interactive
terminal chat (pkg/runner). The spokesperson command wires them together.
*/
package spokesperson
