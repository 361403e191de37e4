package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// payloadFlags collects a form payload from --data, --file and --set.
type payloadFlags struct {
	data string
	file string
	set  []string
}

func (p *payloadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.data, "data", "", "Payload as a JSON object")
	cmd.Flags().StringVarP(&p.file, "file", "f", "", "Read the payload JSON object from a file ('-' for stdin)")
	cmd.Flags().StringArrayVar(&p.set, "set", nil, "Set a payload field, key=value (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("data", "file")
}

// build returns the payload. --set fields are applied on top of --data or
// --file; with no flags at all the payload is an empty object.
func (p *payloadFlags) build(stdin io.Reader) (map[string]any, error) {
	payload := map[string]any{}

	var raw []byte
	switch {
	case p.data != "":
		raw = []byte(p.data)
	case p.file == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read payload from stdin: %w", err)
		}
		raw = b
	case p.file != "":
		b, err := os.ReadFile(p.file)
		if err != nil {
			return nil, fmt.Errorf("read payload file: %w", err)
		}
		raw = b
	}
	if len(strings.TrimSpace(string(raw))) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("payload must be a JSON object: %w", err)
		}
		if payload == nil {
			payload = map[string]any{}
		}
	}

	for _, kv := range p.set {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --set %q, want key=value", kv)
		}
		payload[k] = v
	}
	return payload, nil
}
