/*
Package runner drives a conversation from a terminal or any line-oriented stream.

The Runner asks the current question through an IOHandler, reads the answer,
and hands it to the service until the profile summary is shown. Invalid answers
are reported and the same question is asked again.

# Key Components

  - Runner: the conversation loop.
  - TextHandler: interactive text IO with optional markdown rendering.
  - JSONHandler: JSON-Lines IO for scripted or headless use.
  - SanitizeInput: size and control-character checks shared by every transport.

# Usage

	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
		runner.WithSessionID("cli-user"),
	)
	if err := r.Run(ctx, svc); err != nil {
		log.Fatal(err)
	}
*/
package runner
