// Package secrets loads the optional HashiCorp Vault overlay applied on
// top of file and environment configuration.
package secrets
