package main

import (
	"embed"
	"io/fs"
)

//go:embed config/sample_contacts.yaml
var configFS embed.FS

// ConfigFiles returns a filesystem rooted at config within the embedded FS.
func ConfigFiles() fs.FS {
	if sub, err := fs.Sub(configFS, "config"); err == nil {
		return sub
	}
	return configFS
}
