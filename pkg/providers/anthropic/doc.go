// Package anthropic recognizes Anthropic Messages API payloads: streaming
// content_block_delta and message_stop events, and complete message bodies.
package anthropic
