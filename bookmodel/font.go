package bookmodel

// FontSlot selects one of a font family's four style variants.
type FontSlot int

const (
	FontNormal FontSlot = iota
	FontBold
	FontItalic
	FontBoldItalic
	fontSlotCount
)

// EncryptionInfo is the decryption metadata threaded down from an
// archive's EncryptionMap (§3, §6) to a single embedded font file.
type EncryptionInfo struct {
	Algorithm string
	KeyRef    string
}

// FontFileInfo is one style variant of a font family: the archive-
// relative path to its file and, if the family is an obfuscated/
// encrypted embedded font, its decryption info.
type FontFileInfo struct {
	Path       string
	Encryption *EncryptionInfo
}

// FontEntry is a family's up-to-four style slots (§3 "FontEntry with up
// to four file-info slots").
type FontEntry struct {
	Slots [fontSlotCount]*FontFileInfo
}

// FontManager maps a font-family name to its FontEntry (§3 "Font
// manager").
type FontManager struct {
	families map[string]*FontEntry
}

func newFontManager() *FontManager {
	return &FontManager{families: make(map[string]*FontEntry)}
}

// Register records fileInfo as family's slot, creating the family's entry
// on first use. A later registration for the same (family, slot)
// overwrites the earlier one, matching last-declaration-wins for CSS
// @font-face rules parsed more than once for the same family/style.
func (fm *FontManager) Register(family string, slot FontSlot, fileInfo FontFileInfo) {
	entry, ok := fm.families[family]
	if !ok {
		entry = &FontEntry{}
		fm.families[family] = entry
	}
	entry.Slots[slot] = &fileInfo
}

// Lookup returns family's entry, or nil if no @font-face declared it.
func (fm *FontManager) Lookup(family string) *FontEntry {
	return fm.families[family]
}

// Families returns every registered family name.
func (fm *FontManager) Families() []string {
	names := make([]string, 0, len(fm.families))
	for name := range fm.families {
		names = append(names, name)
	}
	return names
}
