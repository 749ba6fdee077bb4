package export

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/iksnae/guidechat/internal/chat"
)

// YAMLExporter exports sessions in YAML format
type YAMLExporter struct{}

// Export exports a session to YAML format
func (e *YAMLExporter) Export(session chat.Session, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()

	if session.Messages == nil {
		session.Messages = []chat.Message{}
	}
	return enc.Encode(session)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
