// Package openai recognizes OpenAI-compatible chat completion payloads,
// both streaming chunks and complete responses. OpenRouter, DeepSeek and
// most self-hosted gateways use the same envelope.
package openai
