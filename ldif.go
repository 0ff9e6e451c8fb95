package provision

import (
	"fmt"
	"os"
	"strings"
)

// renderModifyLDIF renders an attribute replace batch as an LDIF
// changerecord, one replace block per assignment, in batch order.
func renderModifyLDIF(dn string, batch []Assignment) string {
	var b strings.Builder

	fmt.Fprintf(&b, "dn: %s\n", dn)
	b.WriteString("changetype: modify\n")
	for _, a := range batch {
		fmt.Fprintf(&b, "replace: %s\n", a.Key)
		fmt.Fprintf(&b, "%s: %s\n", a.Key, a.Value)
		b.WriteString("-\n")
	}

	return b.String()
}

// writeAttributeFile writes the rendered batch to a transient per-username
// file. The file exists only for the duration of the CommittingAttributes
// step as an audit artifact; the returned cleanup must run on every exit
// path, abort paths included.
func writeAttributeFile(username, content string) (path string, cleanup func(), err error) {
	f, err := os.CreateTemp("", "adprov-"+username+"-*.ldif")
	if err != nil {
		return "", nil, fmt.Errorf("creating attribute file: %w", err)
	}

	path = f.Name()
	cleanup = func() { os.Remove(path) }

	if _, err := f.WriteString(content); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("writing attribute file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("closing attribute file: %w", err)
	}

	return path, cleanup, nil
}
