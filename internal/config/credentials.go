package config

import (
	"fmt"
	"os"

	"gopkg.in/ini.v1"
)

// Credentials is the ini-backed token store. Each server gets its own
// section holding the bearer token used at login:
//
//	[prod]
//	token = eyJhbGciOi...
type Credentials struct {
	path string
}

// NewCredentials returns a store backed by the given ini file. The
// file does not have to exist yet.
func NewCredentials(path string) *Credentials {
	return &Credentials{path: path}
}

// Token looks up the stored token for a server. The GRIDSYNC_TOKEN
// environment variable takes precedence over the file.
func (c *Credentials) Token(server string) (string, error) {
	if tok := os.Getenv("GRIDSYNC_TOKEN"); tok != "" {
		return tok, nil
	}
	if _, err := os.Stat(c.path); err != nil {
		return "", fmt.Errorf("credentials: no token for server %q", server)
	}
	f, err := ini.Load(c.path)
	if err != nil {
		return "", fmt.Errorf("credentials: load %q: %w", c.path, err)
	}
	section, err := f.GetSection(server)
	if err != nil || !section.HasKey("token") {
		return "", fmt.Errorf("credentials: no token for server %q", server)
	}
	return section.Key("token").String(), nil
}

// Store writes or replaces the token for a server.
func (c *Credentials) Store(server, token string) error {
	f := ini.Empty()
	if _, err := os.Stat(c.path); err == nil {
		if f, err = ini.Load(c.path); err != nil {
			return fmt.Errorf("credentials: load %q: %w", c.path, err)
		}
	}
	f.Section(server).Key("token").SetValue(token)
	if err := f.SaveTo(c.path); err != nil {
		return fmt.Errorf("credentials: save %q: %w", c.path, err)
	}
	return os.Chmod(c.path, 0600)
}

// Servers lists the server names with stored tokens.
func (c *Credentials) Servers() ([]string, error) {
	if _, err := os.Stat(c.path); err != nil {
		return nil, nil
	}
	f, err := ini.Load(c.path)
	if err != nil {
		return nil, fmt.Errorf("credentials: load %q: %w", c.path, err)
	}
	var names []string
	for _, section := range f.Sections() {
		if section.Name() != "DEFAULT" && section.HasKey("token") {
			names = append(names, section.Name())
		}
	}
	return names, nil
}
