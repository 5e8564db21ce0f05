// Package config provides configuration management for the chat relay.
//
// Configuration is loaded from an optional YAML file on top of built-in
// defaults, then overridden from the environment and validated. Fields a
// file omits keep their defaults, so an empty or missing file is a working
// configuration that talks to the built-in OpenAI, Anthropic, DeepSeek and
// Gemini endpoints.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention CHATRELAY_SECTION_FIELD:
//
//   - CHATRELAY_PROXY_LISTEN_ADDRESS overrides proxy.listen_address
//   - CHATRELAY_PROVIDERS_OPENAI_API_KEY overrides providers.openai.api_key
//   - CHATRELAY_RELAY_HISTORY_MODE overrides relay.history_mode
//   - CHATRELAY_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// PORT and OPENAI_API_KEY are honoured as well and map to the listen port and
// relay.default_api_key.
//
// API keys and header values may hold ${secret:name} references; they are
// left as written here and expanded by package credentials.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// There is no global instance: the CLI loads a *Config once and passes it,
// or the section a package needs, to each constructor.
package config
