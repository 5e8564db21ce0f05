// Package gemini recognizes Gemini generateContent and streamGenerateContent
// payloads.
package gemini
