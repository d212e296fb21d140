package opf

import (
	"io"
	"path"
	"strings"

	"go.uber.org/zap"

	"oebcore/archive"
	"oebcore/bookmodel"
	"oebcore/bookreader"
	"oebcore/encryption"
	"oebcore/langdetect"
	"oebcore/ncx"
	"oebcore/pluginregistry"
	"oebcore/textmodel"
	"oebcore/xhtml"
)

const (
	encryptionXMLPath = "META-INF/encryption.xml"
	rightsXMLPath     = "META-INF/rights.xml"
)

// NewPlugin returns the "ePub" format-plugin capability record (§4.9),
// wiring this package's readers into the registry's closures.
func NewPlugin() *pluginregistry.Plugin {
	return &pluginregistry.Plugin{
		Tag:                     "ePub",
		ReadMetainfo:            readMetainfo,
		ReadUIDs:                readUIDs,
		ReadLanguageAndEncoding: readLanguageAndEncoding,
		ReadEncryptionInfos:     readEncryptionInfos,
		ReadModel:               readModel,
		ReadAnnotation:          readAnnotation,
		CoverImage:              coverImage,
	}
}

// openAndLocate opens archivePath as a ZIP container and resolves its
// content.opf root-file path (§4.7 step 1).
func openAndLocate(archivePath string) (*archive.Archive, string, error) {
	a, err := archive.OpenArchive(archivePath)
	if err != nil {
		return nil, "", err
	}
	opfPath, err := LocateRootFile(a)
	if err != nil {
		a.Close()
		return nil, "", err
	}
	return a, opfPath, nil
}

func readEntry(a *archive.Archive, name string) ([]byte, error) {
	rc, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// readEncryptionMap reads META-INF/encryption.xml (and rights.xml, if
// present) into an encryption.Map; both sidecars are optional (§4.7 step
// 1 "may be empty").
func readEncryptionMap(a *archive.Archive, log *zap.Logger) (encryption.Map, error) {
	if !a.Has(encryptionXMLPath) {
		return encryption.Map{}, nil
	}
	data, err := readEntry(a, encryptionXMLPath)
	if err != nil {
		return encryption.Map{}, err
	}
	m, err := encryption.ParseEncryptionXML(data, log)
	if err != nil {
		return encryption.Map{}, err
	}
	if a.Has(rightsXMLPath) {
		rightsData, err := readEntry(a, rightsXMLPath)
		if err == nil {
			m, _ = encryption.MergeRightsXML(m, rightsData, log)
		}
	}
	return m, nil
}

func readMetainfo(book *bookmodel.Book) bool {
	a, opfPath, err := openAndLocate(book.FilePath)
	if err != nil {
		return false
	}
	defer a.Close()
	data, err := readEntry(a, opfPath)
	if err != nil {
		return false
	}
	md, err := ParseMetadata(data, nil)
	if err != nil {
		return false
	}
	PopulateBook(book, md)
	return book.Title != ""
}

func readUIDs(book *bookmodel.Book) {
	a, opfPath, err := openAndLocate(book.FilePath)
	if err != nil {
		return
	}
	defer a.Close()
	data, err := readEntry(a, opfPath)
	if err != nil {
		return
	}
	md, err := ParseMetadata(data, nil)
	if err != nil {
		return
	}
	PopulateUIDs(book, md)
}

func readLanguageAndEncoding(book *bookmodel.Book) bool {
	a, opfPath, err := openAndLocate(book.FilePath)
	if err != nil {
		return false
	}
	defer a.Close()
	data, err := readEntry(a, opfPath)
	if err != nil {
		return false
	}
	if book.Language == "" {
		if md, err := ParseMetadata(data, nil); err == nil && md.Language != "" {
			book.Language = md.Language
		}
	}
	if book.Encoding == "" {
		if enc, ok := langdetect.DeclaredEncoding(data, ""); ok {
			book.Encoding = enc
		} else if enc, ok := langdetect.Naive(data); ok {
			book.Encoding = enc
		}
	}
	return book.Language != "" && book.Encoding != ""
}

func readEncryptionInfos(book *bookmodel.Book) []pluginregistry.EncryptionInfo {
	a, err := archive.OpenArchive(book.FilePath)
	if err != nil {
		return nil
	}
	defer a.Close()
	m, err := readEncryptionMap(a, nil)
	if err != nil {
		return nil
	}
	var out []pluginregistry.EncryptionInfo
	for _, p := range m.Paths() {
		info, ok := m.Lookup(p)
		if !ok {
			continue
		}
		out = append(out, pluginregistry.EncryptionInfo{Algorithm: info.Algorithm, KeyRef: info.KeyRef})
	}
	return out
}

// readAnnotation returns the package document's <dc:description>, the
// plugin registry's only OPF-native source for a book's synopsis text
// (§4.9 "readAnnotation(file) -> string").
func readAnnotation(file string) string {
	a, opfPath, err := openAndLocate(file)
	if err != nil {
		return ""
	}
	defer a.Close()
	data, err := readEntry(a, opfPath)
	if err != nil {
		return ""
	}
	md, err := ParseMetadata(data, nil)
	if err != nil {
		return ""
	}
	return md.Description
}

func coverImage(file string) *bookmodel.Image {
	a, opfPath, err := openAndLocate(file)
	if err != nil {
		return nil
	}
	defer a.Close()
	data, err := readEntry(a, opfPath)
	if err != nil {
		return nil
	}
	doc, err := Parse(data, nil)
	if err != nil {
		return nil
	}
	href, singleImage, ok := doc.ResolveCover()
	if !ok || !singleImage {
		return nil
	}
	archivePath := path.Join(path.Dir(opfPath), href)
	imgData, err := readEntry(a, archivePath)
	if err != nil {
		return nil
	}
	mt, _ := doc.MediaTypeFor(href)
	return &bookmodel.Image{MimeType: mt, Data: imgData}
}

// readModel implements §4.7's readBook pipeline end to end, driving bm's
// text model, contents tree and image table from the archive named by
// bm.Book().FilePath.
func readModel(bm *bookmodel.BookModel) bool {
	log := zap.NewNop()
	book := bm.Book()

	a, opfPath, err := openAndLocate(book.FilePath)
	if err != nil {
		return false
	}
	defer a.Close()

	encMap, err := readEncryptionMap(a, log)
	if err != nil {
		encMap = encryption.Map{}
	}

	opfData, err := readEntry(a, opfPath)
	if err != nil {
		return false
	}
	doc, err := Parse(opfData, log)
	if err != nil {
		return false
	}
	manifestDir := path.Dir(opfPath)

	br := bookreader.New(bm)
	br.SetMainTextModel()
	br.PushKind(textmodel.KindRegular)

	aliases := xhtml.NewAliasTable()
	spineArchivePaths := make([]string, len(doc.Spine))
	for i, href := range doc.Spine {
		ap := joinArchivePath(manifestDir, href)
		spineArchivePaths[i] = ap
		aliases.AliasFor(ap)
	}

	var navPoints []ncx.NavPoint
	referencedByNCX := make(map[string]bool)
	if tocHref, ok := doc.HrefFor(doc.TocID); ok {
		ncxPath := joinArchivePath(manifestDir, tocHref)
		if ncxData, err := readEntry(a, ncxPath); err == nil {
			if ncxReader, err := ncx.Parse(ncxData, log); err == nil {
				navPoints = ncxReader.OrderedNavPoints()
				for _, p := range navPoints {
					if p.ContentHRef == "" {
						continue
					}
					referencedByNCX[joinArchivePath(manifestDir, p.ContentHRef)] = true
				}
			}
		}
	}

	coverHref, coverSingleImage, coverOK := doc.ResolveCover()
	var coverArchivePath string
	if coverOK {
		coverArchivePath = joinArchivePath(manifestDir, coverHref)
	}

	xr := xhtml.New(br, encMap, aliases, a, log)

	for i, href := range doc.Spine {
		archivePath := spineArchivePaths[i]
		if i == 0 {
			// §4.7 step 5a applies only to the first item; it never also
			// gets the step 5b NCX section-break check below.
			if coverOK && archivePath == coverArchivePath && coverSingleImage {
				coverMT, _ := doc.MediaTypeFor(coverHref)
				emitCoverImage(bm, br, a, aliases, coverArchivePath, coverMT)
				continue
			}
			if coverOK && archivePath == coverArchivePath {
				xr.MarkNextImageAsCover()
			} else if coverOK {
				coverMT, _ := doc.MediaTypeFor(coverHref)
				emitCoverImage(bm, br, a, aliases, coverArchivePath, coverMT)
			}
		} else if referencedByNCX[archivePath] {
			br.InsertEndOfSectionParagraph()
		}

		// Register this file's own alias (no fragment) as resolving to the
		// paragraph it is about to start at, so a TOC/guide entry naming
		// the bare file (no "#fragment") resolves to its first paragraph
		// even when the file has no id-bearing element to anchor to.
		bm.SetInternalHyperlink(aliases.AliasFor(archivePath), bookmodel.Label{
			Model:          bm.Main(),
			ParagraphIndex: br.Target().ParagraphsNumber(),
		})

		ok, err := xr.ReadFile(archivePath, href)
		if !ok {
			if encMap.Has(archivePath) {
				br.InsertEncryptedSectionParagraph()
			} else if err != nil {
				log.Warn("spine file failed to read", zap.String("href", href), zap.Error(err))
			}
		}
	}

	br.InsertEndOfTextParagraph()

	if len(navPoints) > 0 {
		GenerateTOC(br, &archiveResolver{aliases: aliases, dir: manifestDir}, bm, navPoints)
	} else {
		GenerateGuideTOC(br, &archiveResolver{aliases: aliases, dir: manifestDir}, bm, doc.Guide, doc.Tour)
	}

	return true
}

// archiveResolver resolves guide/NCX hrefs (always relative to the OPF
// document's own directory, never to a spine file's directory) through
// the same alias table the spine read populated, satisfying toc.go's
// referenceResolver.
type archiveResolver struct {
	aliases *xhtml.AliasTable
	dir     string
}

func (r *archiveResolver) NormalizedReference(href string) string {
	return r.aliases.NormalizedReference(href, r.dir, "")
}

// joinArchivePath resolves href (an OPF-relative spine/guide/NCX-content
// reference, possibly carrying a "#fragment" an archive entry name never
// has) against dir into a clean archive-relative path.
func joinArchivePath(dir, href string) string {
	filePart, _, _ := strings.Cut(href, "#")
	return path.Clean(path.Join(dir, filePart))
}

func emitCoverImage(bm *bookmodel.BookModel, br *bookreader.Reader, opener xhtml.FileOpener, aliases *xhtml.AliasTable, archivePath, mimeType string) {
	rc, err := opener.Open(archivePath)
	if err != nil {
		return
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return
	}
	name := aliases.AliasFor(archivePath)
	bm.RegisterImage(name, mimeType, data)
	br.BeginParagraph(textmodel.Regular)
	br.AddImageReference(name, 0, true)
	br.EndParagraph()
}
