package bookmodel

// Image is a registered embedded image blob, keyed by name and
// deduplicated so the same cover or inline image referenced from more
// than one paragraph is stored once (§4.3 "addImage... registers the
// blob with the model (deduplicated by name)").
type Image struct {
	MimeType string
	Data     []byte
}

// RegisterImage stores data under name if not already present, returning
// whether this call actually added it (false means a prior call already
// registered this name and data was ignored).
func (bm *BookModel) RegisterImage(name, mimeType string, data []byte) bool {
	if bm.images == nil {
		bm.images = make(map[string]*Image)
	}
	if _, ok := bm.images[name]; ok {
		return false
	}
	bm.images[name] = &Image{MimeType: mimeType, Data: data}
	return true
}

// Image returns the registered image named name, or nil.
func (bm *BookModel) Image(name string) *Image {
	return bm.images[name]
}

// ImageNames returns every registered image's name.
func (bm *BookModel) ImageNames() []string {
	names := make([]string, 0, len(bm.images))
	for name := range bm.images {
		names = append(names, name)
	}
	return names
}
