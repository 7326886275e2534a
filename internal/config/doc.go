// Package config resolves the configuration of a generation run.
//
// Values are resolved in order, each layer overriding the previous one:
//   - built-in defaults (Default)
//   - an optional YAML file (LoadFile)
//   - an optional dotenv file (LoadDotEnv)
//   - GEN192_* environment variables (ApplyEnv)
//   - command line flags, applied by the caller
//
// Validate must be called once every layer is applied.
package config
