// Package providerfactory builds upstream adapters from configuration and
// keeps the process-wide provider registry.
//
// Each provider gets a probe chain assembled from its configured response
// shapes. Manager.Resolve maps a chat request onto a provider, a credential
// and a full endpoint URL; failures are providers.ErrInvalidRequest errors
// and are reported before any upstream call.
package providerfactory
