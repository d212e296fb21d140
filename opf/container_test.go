package opf

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"oebcore/archive"
)

func buildZip(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.epub")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close zip file: %v", err)
	}
	return path
}

func TestLocateRootFile_ViaContainerXML(t *testing.T) {
	path := buildZip(t, map[string]string{
		ContainerPath: `<?xml version="1.0"?>
<container><rootfiles>
<rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
</rootfiles></container>`,
		"OEBPS/content.opf": "<package/>",
	})
	a, err := archive.OpenArchive(path)
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	defer a.Close()

	got, err := LocateRootFile(a)
	if err != nil {
		t.Fatalf("LocateRootFile: %v", err)
	}
	if got != "OEBPS/content.opf" {
		t.Fatalf("LocateRootFile = %q, want OEBPS/content.opf", got)
	}
}

func TestLocateRootFile_PrefersOEBPSMediaTypeOverFirstEntry(t *testing.T) {
	path := buildZip(t, map[string]string{
		ContainerPath: `<container><rootfiles>
<rootfile full-path="other/first.xml" media-type="application/x-other+xml"/>
<rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
</rootfiles></container>`,
	})
	a, err := archive.OpenArchive(path)
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	defer a.Close()

	got, err := LocateRootFile(a)
	if err != nil {
		t.Fatalf("LocateRootFile: %v", err)
	}
	if got != "OEBPS/content.opf" {
		t.Fatalf("LocateRootFile = %q, want OEBPS/content.opf", got)
	}
}

func TestLocateRootFile_FallsBackToOPFScanWhenContainerMissing(t *testing.T) {
	path := buildZip(t, map[string]string{
		"book.opf": "<package/>",
		"ch1.xhtml": "<html/>",
	})
	a, err := archive.OpenArchive(path)
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	defer a.Close()

	got, err := LocateRootFile(a)
	if err != nil {
		t.Fatalf("LocateRootFile: %v", err)
	}
	if got != "book.opf" {
		t.Fatalf("LocateRootFile = %q, want book.opf", got)
	}
}

func TestLocateRootFile_NothingFoundReturnsError(t *testing.T) {
	path := buildZip(t, map[string]string{"readme.txt": "hi"})
	a, err := archive.OpenArchive(path)
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	defer a.Close()

	if _, err := LocateRootFile(a); err == nil {
		t.Fatalf("LocateRootFile returned nil error, want one")
	}
}
