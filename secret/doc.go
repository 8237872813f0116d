// Package secret resolves bearer tokens and other sensitive configuration
// values without putting them on the command line.
//
// A value is first expanded against the environment (see ExpandEnvStrict),
// then any secret reference in it is resolved through a Provider:
//
//	${ENTITY_TOKEN}                    environment variable, must be set
//	secretref:env:ENTITY_TOKEN         same, through the env provider
//	secretref:file:/run/secrets/token  file contents, trailing newline trimmed
//	Bearer secretref:env:ENTITY_TOKEN  inline reference inside a larger value
//
// DefaultRegistry has the env and file providers registered.
package secret
