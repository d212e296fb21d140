package xhtml

import (
	"path"
	"strconv"
	"strings"
)

// AliasTable assigns each spine XHTML file a short decimal alias in
// spine order (§4.5 "File alias scheme"), used to prefix in-model anchor
// ids so two files' identical #fragment ids never collide.
type AliasTable struct {
	byPath  map[string]string
	nextIdx int
}

// NewAliasTable creates an empty alias table.
func NewAliasTable() *AliasTable {
	return &AliasTable{byPath: make(map[string]string)}
}

// AliasFor returns archivePath's alias, assigning the next free decimal
// alias if this is the first time archivePath is seen.
func (t *AliasTable) AliasFor(archivePath string) string {
	if a, ok := t.byPath[archivePath]; ok {
		return a
	}
	a := strconv.Itoa(t.nextIdx)
	t.nextIdx++
	t.byPath[archivePath] = a
	return a
}

// Lookup returns archivePath's alias without assigning a new one.
func (t *AliasTable) Lookup(archivePath string) (string, bool) {
	a, ok := t.byPath[archivePath]
	return a, ok
}

// NormalizedReference splits href on '#', resolves the file part against
// dir (the referencing document's directory, archive-relative), looks it
// up in the alias table, and rejoins it with the fragment (§4.5
// "normalizedReference(href)"). If the file part is empty (a bare
// "#frag" reference), it resolves against selfAlias instead — the
// reference is to the current document.
func (t *AliasTable) NormalizedReference(href, dir, selfAlias string) string {
	filePart, fragment, hasFragment := strings.Cut(href, "#")
	var alias string
	if filePart == "" {
		alias = selfAlias
	} else {
		resolved := path.Clean(path.Join(dir, filePart))
		a, ok := t.Lookup(resolved)
		if !ok {
			// Unresolved file reference: keep the resolved archive path so
			// callers can still distinguish "definitely not found" from a
			// collision, without crashing the read (§7 category 4).
			alias = resolved
		} else {
			alias = a
		}
	}
	if hasFragment {
		return alias + "#" + fragment
	}
	return alias
}
