// Package anomaly holds the builtin anomaly rules, raised when the structure or encoding of a request is not what a well-behaved client sends.
package anomaly

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"secwaf/rules"
)

// ID identifies a builtin anomaly. The values are also the rule IDs reported when an anomaly matches.
type ID int

// Builtin anomalies.
const (
	UncommonContentType     ID = 1
	UncommonPostFormat      ID = 2
	UncommonPostBoundary    ID = 3
	SpecialFileCharacter    ID = 1201
	UncommonHexEncoding     ID = 1202
	UncommonFilenamePostfix ID = 1203
	UncommonFilename        ID = 1204
	TooManyPostArgs         ID = 1205
)

var names = map[ID]string{
	UncommonContentType:     "uncommon_content_type",
	UncommonPostFormat:      "uncommon_post_format",
	UncommonPostBoundary:    "uncommon_post_boundary",
	SpecialFileCharacter:    "special_file_charactor",
	UncommonHexEncoding:     "uncommon_hex_encoding",
	UncommonFilenamePostfix: "uncommon_filename_postfix",
	UncommonFilename:        "uncommon_filename",
	TooManyPostArgs:         "too_many_post_args",
}

func (id ID) String() string {
	if s, ok := names[id]; ok {
		return s
	}
	return fmt.Sprintf("anomaly(%d)", int(id))
}

// Valid reports whether id is a builtin anomaly.
func (id ID) Valid() bool {
	_, ok := names[id]
	return ok
}

// ErrUnknownAnomaly is returned for anomaly IDs or names that are not builtin anomalies.
var ErrUnknownAnomaly = errors.New("unknown anomaly")

// ParseID looks up an anomaly by its name. Case is ignored.
func ParseID(name string) (id ID, err error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, v := range names {
		if v == name {
			id = k
			return
		}
	}

	err = fmt.Errorf("%w: %q", ErrUnknownAnomaly, name)
	return
}

// IDs returns all builtin anomaly IDs in ascending order.
func IDs() (ids []ID) {
	for id := range names {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return
}

// Definition configures one builtin anomaly.
// Literal and Pattern are only used by anomalies that inspect a target, such as the uploaded filename checks. Pattern wins if both are set.
type Definition struct {
	ID      ID
	Active  bool
	Action  rules.Action
	Literal string
	Pattern string
}

// Default patterns for the filename checks.
const (
	DefaultSpecialFileCharacterPattern    = `[\x00-\x1f"*:<>?|\\/;]|\.\.`
	DefaultUncommonFilenamePostfixPattern = `(?i)\.(php\d?|phtml|jsp|jspx|asp|aspx|ashx|asmx|cer|cgi|pl|py|sh|exe|dll|bat|cmd|htaccess)(\.|\s|$)`
)

// DefaultDefinitions returns a definition for every builtin anomaly, all active, blocking and logging.
func DefaultDefinitions() (defs []Definition) {
	for _, id := range IDs() {
		d := Definition{
			ID:     id,
			Active: true,
			Action: rules.Action{Block: true, Log: true, Message: id.String()},
		}

		switch id {
		case SpecialFileCharacter:
			d.Pattern = DefaultSpecialFileCharacterPattern
		case UncommonFilenamePostfix:
			d.Pattern = DefaultUncommonFilenamePostfixPattern
		}

		defs = append(defs, d)
	}

	return
}
