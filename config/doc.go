// Package config loads the engine configuration from YAML.
//
// Every string scalar is expanded with ExpandEnvStrict before decoding, so
// secrets can be kept in the environment:
//
//	server:
//	  realm: api
//	  access_token_lifetime: 30m
//	  grant_types: [client_credentials, refresh_token, authorization_code]
//	clients:
//	  - id: worker
//	    secret: ${WORKER_SECRET}
//	    grant_types: [client_credentials]
//	redis:
//	  address: localhost:6379
//	  password: ${REDIS_PASSWORD}
//	observe:
//	  service_name: auth
//	  logging:
//	    enabled: true
//	    level: info
//
// The helpers on Config turn the sections into engine collaborators:
// ClientStorage, OpenBackends, Endpoint, Authorizer, Guard and Observer.
package config
