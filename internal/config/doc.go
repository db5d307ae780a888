// Package config loads collsync defaults from struct tags, an optional
// config file, a .env file and COLLSYNC_* environment variables.
//
// Nested keys map to environment variables by replacing "." with "_":
// clone_on.state_change is COLLSYNC_CLONE_ON_STATE_CHANGE.
package config
