package credentials

// Credentials represents the stored gateway credentials in credentials.toml.
// Keys are stored per profile so one machine can talk to several gateways or
// accounts.
type Credentials struct {
	Version  int                          `toml:"version"`
	Profiles map[string]ProfileCredential `toml:"profiles"`
}

// ProfileCredential holds the API key for a single profile.
type ProfileCredential struct {
	APIKey string `toml:"api_key"`
}
