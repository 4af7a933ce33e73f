package mqtt

import (
	"strings"

	"github.com/autopeer-io/guardian/pkg/mqtt/topic"
)

const sharePrefix = "$share/"

// topicsMatch reports whether topic is selected by filter, honouring the
// single- and multi-level wildcards.
func topicsMatch(filter, name string) bool {
	if filter == name {
		return true
	}
	if !strings.ContainsAny(filter, topic.Wildcard+topic.MultiWildcard) {
		return false
	}

	fl := strings.Split(filter, "/")
	tl := strings.Split(name, "/")
	for i, part := range fl {
		switch {
		case part == topic.MultiWildcard:
			return true
		case i >= len(tl):
			return false
		case part != topic.Wildcard && part != tl[i]:
			return false
		}
	}
	return len(fl) == len(tl)
}

// topicFilter strips a shared-subscription group: $share/<group>/<filter>.
func topicFilter(filter string) string {
	if !strings.HasPrefix(filter, sharePrefix) {
		return filter
	}
	parts := strings.SplitN(filter, "/", 3)
	if len(parts) != 3 {
		return filter
	}
	return parts[2]
}
