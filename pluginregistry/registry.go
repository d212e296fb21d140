// Package pluginregistry implements the format-plugin dispatch table
// (§4.9): a static, read-only-after-init mapping from a file-type tag to
// a capability record, looked up by the foreign-function shim (§6).
package pluginregistry

import (
	"github.com/h2non/filetype"

	"oebcore/bookmodel"
)

// EncryptionInfo mirrors bookmodel's font-encryption record shape for a
// plugin's declared per-file encryption list (§4.9 "readEncryptionInfos").
type EncryptionInfo = bookmodel.EncryptionInfo

// Plugin is the capability record a format implementation registers: a
// set of closures rather than a class hierarchy (§9 design note
// "Polymorphism over plugins and tag actions... a capability record per
// plugin").
type Plugin struct {
	// Tag is the opaque short string this plugin is registered under
	// ("ePub", "fb2", ...).
	Tag string

	ReadMetainfo            func(book *bookmodel.Book) bool
	ReadUIDs                func(book *bookmodel.Book)
	ReadLanguageAndEncoding func(book *bookmodel.Book) bool
	ReadEncryptionInfos     func(book *bookmodel.Book) []EncryptionInfo
	ReadModel               func(bm *bookmodel.BookModel) bool
	ReadAnnotation          func(file string) string
	CoverImage              func(file string) *bookmodel.Image
}

// Registry is the process-wide plugin table. Registration happens once
// at process start (§5 "Process-wide state: the tag-action registry and
// plugin registry are initialized once at process start and read-only
// thereafter; no locking needed after init").
type Registry struct {
	plugins map[string]*Plugin
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]*Plugin)}
}

// Register adds p under p.Tag, overwriting any previous registration for
// that tag (used by tests to substitute a fake plugin; real startup
// registers each format exactly once).
func (r *Registry) Register(p *Plugin) {
	r.plugins[p.Tag] = p
}

// Lookup returns the plugin registered for tag, or nil for an unknown
// type (§4.9 "Lookup by file-type returns null for unknown types").
func (r *Registry) Lookup(tag string) *Plugin {
	return r.plugins[tag]
}

// Tags returns every registered file-type tag.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.plugins))
	for t := range r.plugins {
		tags = append(tags, t)
	}
	return tags
}

// SniffTag inspects a file's leading bytes with h2non/filetype and
// returns the plugin tag for a recognized container shape. EPUB files
// are themselves ZIP archives (§6 "EPUB = ZIP containing
// META-INF/container.xml"), so the ZIP magic number is the only thing
// distinguishable from raw bytes alone; a caller that needs to tell an
// EPUB apart from an unrelated ZIP should additionally check for
// META-INF/container.xml once the archive is open (see opf package).
func SniffTag(head []byte) (string, bool) {
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return "", false
	}
	if kind.Extension == "zip" {
		return "ePub", true
	}
	return "", false
}
