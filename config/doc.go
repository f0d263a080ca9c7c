// Package config loads restproxy client configuration.
//
// LoadConfig reads a YAML file, loads an optional .env file, then lets
// environment variables override any key of the target struct. A key is
// spelled in upper case with dots and hyphens as underscores, so
// logging.level is LOGGING_LEVEL. Entries of the clients map are addressed
// as CLIENTS_<NAME>_<KEY>:
//
//	CLIENTS_BILLING_API_URL=http://billing.prod     # clients.billing-api.url
//	CLIENTS_BILLING_API_RETRY_MAX_ATTEMPTS=4        # clients.billing-api.retry.max_attempts
//
// A name matching a client from the file keeps its spelling; other names
// create a client in lower case. WithEnvPrefix limits overrides to
// PREFIX_ variables.
//
// Without WithConfigFile the file is taken from RESTPROXY_CONFIG, or the
// first of <service>.yml, <service>.yaml and config.yml in the working
// directory or ./config.
//
//	cfg, err := config.Load("orders")
//	billing, _ := cfg.Client("billing-api")
//	b, err := client.FromConfig("billing-api", billing)
//
// Viper lower-cases map keys, so client names are looked up in lower case.
package config
