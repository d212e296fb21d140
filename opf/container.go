package opf

import (
	"fmt"
	"io"
	"strings"

	"oebcore/archive"
	"oebcore/saxdriver"
)

// ContainerPath is the well-known location of container.xml in an EPUB
// archive (§4.7 step 1, "open the container archive").
const ContainerPath = "META-INF/container.xml"

type containerReader struct {
	inRootfiles bool
	fallback    string
	preferred   string
}

func (r *containerReader) StartElement(_, name string, attrs []saxdriver.Attr) {
	switch localName(name) {
	case "rootfiles":
		r.inRootfiles = true
	case "rootfile":
		if !r.inRootfiles {
			return
		}
		fullPath, _ := attrValue(attrs, "full-path")
		fullPath = strings.TrimSpace(fullPath)
		if fullPath == "" {
			return
		}
		mt, _ := attrValue(attrs, "media-type")
		if strings.EqualFold(strings.TrimSpace(mt), "application/oebps-package+xml") {
			if r.preferred == "" {
				r.preferred = fullPath
			}
		} else if r.fallback == "" {
			r.fallback = fullPath
		}
	}
}

func (r *containerReader) EndElement(_, name string) {
	if localName(name) == "rootfiles" {
		r.inRootfiles = false
	}
}

func (r *containerReader) CharacterData(string) {}

// LocateRootFile resolves the path of the content.opf root file inside an
// opened archive. It tries META-INF/container.xml first, preferring a
// rootfile whose media-type is application/oebps-package+xml and otherwise
// taking the first non-empty full-path; if container.xml is missing or
// names nothing usable, it falls back to scanning every archive entry for
// a ".opf"-suffixed name.
func LocateRootFile(a *archive.Archive) (string, error) {
	if a.Has(ContainerPath) {
		if path, err := parseContainerXML(a); err == nil && path != "" {
			return path, nil
		}
	}
	for _, name := range a.Names() {
		if strings.HasSuffix(strings.ToLower(name), ".opf") {
			return name, nil
		}
	}
	return "", fmt.Errorf("opf: no root file found via %s or .opf scan", ContainerPath)
}

func parseContainerXML(a *archive.Archive) (string, error) {
	f, err := a.Open(ContainerPath)
	if err != nil {
		return "", fmt.Errorf("opf: open container.xml: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("opf: read container.xml: %w", err)
	}

	r := &containerReader{}
	if err := saxdriver.Drive(data, r, saxdriver.Options{}); err != nil {
		return "", fmt.Errorf("opf: parse container.xml: %w", err)
	}
	if r.preferred != "" {
		return r.preferred, nil
	}
	return r.fallback, nil
}
