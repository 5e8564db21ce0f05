// Package catalog holds the list of models the relay advertises on
// GET /api/models and maps model ids to the provider serving them.
//
// The built-in list can be replaced by a YAML file:
//
//	models:
//	  - id: gpt-4o
//	    name: GPT-4o
//	    provider: openai
//	  - id: llama3
//	    name: Llama 3 (local)
//	    provider: ollama
//
// When watching is enabled the file is reloaded after it changes. A file
// that fails to load or validate leaves the previous list in place.
package catalog
