// Package config defines the application's configuration structure and
// loading logic. Configuration comes from defaults, an optional config.yaml,
// and SYNTHGEN_-prefixed environment variables, in increasing precedence,
// and is validated before use.
package config
