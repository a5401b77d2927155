package recorder

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlSession is the human-oriented rendering of a Document.
type yamlSession struct {
	CommandLine []string     `yaml:"command_line"`
	Records     []yamlRecord `yaml:"records"`
}

type yamlRecord struct {
	Command string `yaml:"command"`
	Exit    int    `yaml:"exit"`
	Stdout  string `yaml:"stdout,omitempty"`
	Stderr  string `yaml:"stderr,omitempty"`
}

// RenderYAML serializes a session for review. The JSON document stays the
// only format that can be replayed.
func RenderYAML(doc *Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("session cannot be nil")
	}

	out := yamlSession{
		CommandLine: doc.CmdLine,
		Records:     make([]yamlRecord, 0, len(doc.Records)),
	}
	for _, r := range doc.Records {
		out.Records = append(out.Records, yamlRecord{
			Command: r.Command,
			Exit:    r.ExitCode,
			Stdout:  r.Stdout,
			Stderr:  r.Stderr,
		})
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session to YAML: %w", err)
	}
	return string(data), nil
}

// RenderText writes a numbered one-line-per-record summary of a session.
func RenderText(w io.Writer, doc *Document) error {
	if doc == nil {
		return fmt.Errorf("session cannot be nil")
	}

	if _, err := fmt.Fprintf(w, "command line: %s\n", strings.Join(doc.CmdLine, " ")); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "records: %d\n", len(doc.Records)); err != nil {
		return err
	}
	for i, r := range doc.Records {
		if _, err := fmt.Fprintf(w, "  %d. [exit %d] %s (stdout %d bytes, stderr %d bytes)\n",
			i+1, r.ExitCode, r.Command, len(r.Stdout), len(r.Stderr)); err != nil {
			return err
		}
	}
	return nil
}
