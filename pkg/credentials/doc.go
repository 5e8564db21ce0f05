// Package credentials resolves ${secret:name} references in provider
// configuration.
//
// A reference may appear anywhere in a provider's api_key or header values,
// and in relay.default_api_key:
//
//	providers:
//	  openai:
//	    api_key: "${secret:openai-api-key}"
//	    headers:
//	      OpenAI-Organization: "${secret:openai-org}"
//
// Secrets are looked up in order from a directory of secret files (the
// Kubernetes and Docker secrets layout, one file per secret), from AWS
// Systems Manager Parameter Store when credentials.ssm_prefix is set, and
// from environment variables. With the defaults, the secret
// "openai-api-key" is read from <dir>/openai-api-key, then from the
// parameter <ssm_prefix>openai-api-key, then from
// CHATRELAY_SECRET_OPENAI_API_KEY.
//
// Resolution happens once at startup. A reference that cannot be resolved
// is a configuration error; secret values are never logged.
package credentials
