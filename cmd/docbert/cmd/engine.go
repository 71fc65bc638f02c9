package cmd

import (
	"github.com/docbert/docbert/pkg/docbert"
)

// openEngine opens the Engine with the root --offline flag applied,
// the single entry point every subcommand uses to reach storage.
func openEngine() (*docbert.Engine, error) {
	return docbert.Open(docbert.Options{Offline: offline})
}
