// Package configs loads and saves credvault configuration.
//
// The config file lives at $XDG_CONFIG_HOME/credvault/config.toml. A path
// ending in .yaml or .yml is read and written as YAML instead:
//
//	[vault]
//	app_id = "credvault"
//	data_dir = "~/.local/share/credvault"
//	store = "bolt"       # bolt, sqlite or memory
//	keystore = "file"    # file or memory
//
//	[keys]
//	bits = 2048
//	validity_skew = "24h0m0s"
//	validity_period = "262800h0m0s"
//	auth_validity = "1m40s"
//
//	[device.capabilities]
//	secure = true
//	device_credential = true
//
//	[prompt]
//	title = "Authenticate"
//	max_attempts = 5
//
// The enrolled device PIN is kept separately in device.toml next to the
// config, written with owner-only permissions.
package configs
