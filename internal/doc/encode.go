package doc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ContentType selects the byte encoding of a document tree. The encoding
// never changes the logical tree.
type ContentType int

const (
	JSON ContentType = iota
	PrettyJSON
	YAML
	CanonicalJSON
)

var contentTypeNames = map[ContentType]string{
	JSON:          "json",
	PrettyJSON:    "pretty",
	YAML:          "yaml",
	CanonicalJSON: "canonical",
}

func (ct ContentType) String() string {
	if s, ok := contentTypeNames[ct]; ok {
		return s
	}
	return "ContentType(" + strconv.Itoa(int(ct)) + ")"
}

// MediaType returns the HTTP media type for the encoding.
func (ct ContentType) MediaType() string {
	if ct == YAML {
		return "application/yaml"
	}
	return "application/json"
}

// Extension returns the file extension, including the dot.
func (ct ContentType) Extension() string {
	if ct == YAML {
		return ".yaml"
	}
	return ".json"
}

// ParseContentType maps json, pretty, yaml and canonical to a ContentType.
func ParseContentType(s string) (ContentType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for ct, n := range contentTypeNames {
		if n == name {
			return ct, nil
		}
	}
	return 0, fmt.Errorf("unknown content type %q (want json, pretty, yaml or canonical)", s)
}

// ContentTypeNames lists the accepted ParseContentType inputs.
func ContentTypeNames() []string {
	return []string{"json", "pretty", "yaml", "canonical"}
}

// Encode renders v in the requested encoding.
func Encode(v any, ct ContentType) ([]byte, error) {
	switch ct {
	case JSON:
		var buf bytes.Buffer
		if err := writeJSON(&buf, v); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case PrettyJSON:
		var compact bytes.Buffer
		if err := writeJSON(&compact, v); err != nil {
			return nil, err
		}
		var out bytes.Buffer
		if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
			return nil, err
		}
		return out.Bytes(), nil
	case YAML:
		return encodeYAML(v)
	case CanonicalJSON:
		return MarshalCanonical(v)
	default:
		return nil, fmt.Errorf("unsupported content type %s", ct)
	}
}

func writeJSON(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case string:
		return writeJSONString(buf, val)
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(val, 10))
	case float64, json.Number:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(b)
	case *Object:
		buf.WriteByte('{')
		for i, k := range val.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSON(buf, val.values[k]); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	default:
		nv, err := Normalize(v)
		if err != nil {
			return err
		}
		return writeJSON(buf, nv)
	}
	return nil
}

// writeJSONString writes s as a JSON string without HTML escaping.
func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

func encodeYAML(v any) ([]byte, error) {
	node, err := yamlNode(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func yamlNode(v any) (*yaml.Node, error) {
	switch val := v.(type) {
	case *Object:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range val.keys {
			child, err := yamlNode(val.values[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
			n.Content = append(n.Content, key, child)
		}
		return n, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, elem := range val {
			child, err := yamlNode(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return yamlNode(i)
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", val.String())
		}
		return yamlNode(f)
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case bool, string, int64, uint64, float64:
		n := &yaml.Node{}
		if err := n.Encode(val); err != nil {
			return nil, err
		}
		return n, nil
	default:
		nv, err := Normalize(v)
		if err != nil {
			return nil, err
		}
		return yamlNode(nv)
	}
}
