// Chatrelay is the server-side relay between a browser chat client and
// third-party LLM HTTP APIs.
//
// It accepts chat requests, calls an OpenAI-compatible, Anthropic-style or
// Gemini-style upstream and streams the answer back as uniform
// Server-Sent Events.
//
// Usage:
//
//	# Start the relay with defaults, .env and CHATRELAY_* variables
//	chatrelay run
//
//	# Start with a configuration file
//	chatrelay run --config /etc/chatrelay/config.yaml
//
//	# Check a configuration file
//	chatrelay validate --config config.yaml
//
//	# List the model catalog
//	chatrelay models --format json
//
//	# Inspect and prune the audit log
//	chatrelay audit list --since 24h --outcome error
//	chatrelay audit prune --days 7
package main

func main() {
	Execute()
}
