// Package config resolves the CLI's declared configuration keys from three
// layers with precedence: environment variables > persisted config file >
// compiled-in defaults. Every key has a declared type, and raw text from the
// file, the environment or the command line is coerced to it. Mutations are
// written straight back to the file and a value equal to the default is never
// persisted.
package config
