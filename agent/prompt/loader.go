package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/phraser.txt
var phraserRaw string

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Phraser string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Phraser: strings.TrimSpace(phraserRaw),
	}
}
