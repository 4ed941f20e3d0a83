package book

import (
	"archive/zip"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

const epubMimetype = "application/epub+zip"

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

// WriteEPUB writes the sections as an EPUB 2 archive: the mimetype entry
// first and uncompressed so readers can sniff it at a fixed offset, then
// the container descriptor, the OPF package document, the NCX table of
// contents, a title page, and one XHTML file per section in spine order.
// The OPF identifier and the NCX uid carry the same generated UUID.
func WriteEPUB(w io.Writer, info Info, sections []Section) error {
	if info.Language == "" {
		info.Language = "zh-CN"
	}
	id := "urn:uuid:" + uuid.NewString()
	names := chapterFileNames(sections)

	opf, err := packageDoc(info, id, names, sections)
	if err != nil {
		return err
	}
	ncx, err := tocDoc(info, id, names, sections)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)

	mt, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return err
	}
	if _, err := io.WriteString(mt, epubMimetype); err != nil {
		return err
	}

	entries := []struct{ name, content string }{
		{"META-INF/container.xml", containerXML},
		{"OEBPS/content.opf", opf},
		{"OEBPS/toc.ncx", ncx},
		{"OEBPS/title.xhtml", titlePage(info)},
	}
	for i, s := range sections {
		entries = append(entries, struct{ name, content string }{"OEBPS/" + names[i], chapterPage(s)})
	}
	for _, e := range entries {
		f, err := zw.Create(e.name)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(f, e.content); err != nil {
			return err
		}
	}

	return zw.Close()
}

// packageDoc builds the OPF package document.
func packageDoc(info Info, id string, names []string, sections []Section) (string, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	pkg := doc.CreateElement("package")
	pkg.CreateAttr("xmlns", "http://www.idpf.org/2007/opf")
	pkg.CreateAttr("unique-identifier", "book-id")
	pkg.CreateAttr("version", "2.0")

	meta := pkg.CreateElement("metadata")
	meta.CreateAttr("xmlns:dc", "http://purl.org/dc/elements/1.1/")
	meta.CreateAttr("xmlns:opf", "http://www.idpf.org/2007/opf")
	meta.CreateElement("dc:title").SetText(info.Title)
	if info.Author != "" {
		creator := meta.CreateElement("dc:creator")
		creator.CreateAttr("opf:file-as", info.Author)
		creator.CreateAttr("opf:role", "aut")
		creator.SetText(info.Author)
	}
	meta.CreateElement("dc:language").SetText(info.Language)
	ident := meta.CreateElement("dc:identifier")
	ident.CreateAttr("id", "book-id")
	ident.CreateAttr("opf:scheme", "UUID")
	ident.SetText(id)
	meta.CreateElement("dc:date").SetText(time.Now().Format("2006-01-02"))

	manifest := pkg.CreateElement("manifest")
	addItem := func(id, href, mediaType string) {
		item := manifest.CreateElement("item")
		item.CreateAttr("id", id)
		item.CreateAttr("href", href)
		item.CreateAttr("media-type", mediaType)
	}
	addItem("ncx", "toc.ncx", "application/x-dtbncx+xml")
	addItem("title-page", "title.xhtml", "application/xhtml+xml")
	for i := range sections {
		addItem(chapterID(i), names[i], "application/xhtml+xml")
	}

	spine := pkg.CreateElement("spine")
	spine.CreateAttr("toc", "ncx")
	spine.CreateElement("itemref").CreateAttr("idref", "title-page")
	for i := range sections {
		spine.CreateElement("itemref").CreateAttr("idref", chapterID(i))
	}

	guide := pkg.CreateElement("guide")
	ref := guide.CreateElement("reference")
	ref.CreateAttr("type", "text")
	ref.CreateAttr("title", "Start")
	ref.CreateAttr("href", "title.xhtml")

	doc.Indent(2)
	return doc.WriteToString()
}

// tocDoc builds the NCX table of contents. The title page takes play
// order 1, chapters follow in spine order.
func tocDoc(info Info, id string, names []string, sections []Section) (string, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateDirective(`DOCTYPE ncx PUBLIC "-//NISO//DTD ncx 2005-1//EN" "http://www.daisy.org/z3986/2005/ncx-2005-1.dtd"`)

	ncx := doc.CreateElement("ncx")
	ncx.CreateAttr("xmlns", "http://www.daisy.org/z3986/2005/ncx/")
	ncx.CreateAttr("version", "2005-1")

	head := ncx.CreateElement("head")
	addMeta := func(name, content string) {
		m := head.CreateElement("meta")
		m.CreateAttr("name", name)
		m.CreateAttr("content", content)
	}
	addMeta("dtb:uid", id)
	addMeta("dtb:depth", "1")
	addMeta("dtb:totalPageCount", "0")
	addMeta("dtb:maxPageNumber", "0")

	ncx.CreateElement("docTitle").CreateElement("text").SetText(info.Title)

	nav := ncx.CreateElement("navMap")
	addPoint := func(id string, order int, label, src string) {
		point := nav.CreateElement("navPoint")
		point.CreateAttr("id", id)
		point.CreateAttr("playOrder", strconv.Itoa(order))
		point.CreateElement("navLabel").CreateElement("text").SetText(label)
		point.CreateElement("content").CreateAttr("src", src)
	}
	addPoint("title-page", 1, "Title Page", "title.xhtml")
	for i, s := range sections {
		addPoint(chapterID(i), i+2, s.Title, names[i])
	}

	doc.Indent(2)
	return doc.WriteToString()
}

func chapterID(i int) string {
	return fmt.Sprintf("chapter-%03d", i+1)
}

// chapterFileNames derives an archive file name for every section. Names
// are reduced to ASCII-safe characters; a section whose title reduces to
// nothing, or collides with an earlier section, falls back to a numbered
// name.
func chapterFileNames(sections []Section) []string {
	used := make(map[string]bool, len(sections))
	names := make([]string, len(sections))
	for i, s := range sections {
		name := asciiName(s.Title)
		if name == "" || used[name] {
			name = fmt.Sprintf("chapter_%03d", i+1)
		}
		used[name] = true
		names[i] = name + ".xhtml"
	}
	return names
}

func asciiName(title string) string {
	mapped := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*', '（', '）', ' ':
			return '_'
		}
		return r
	}, title)

	runes := []rune(mapped)
	if len(runes) > 50 {
		runes = runes[:50]
	}

	var b strings.Builder
	for _, r := range runes {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}
	return b.String()
}

const titlePageTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <title>%s</title>
  <style type="text/css">
    body { text-align: center; margin: 50px; font-family: serif; }
    h1 { font-size: 2.5em; margin: 50px 0; }
    h2 { font-size: 1.5em; margin: 30px 0; }
  </style>
</head>
<body>
  <h1>%s</h1>%s
</body>
</html>
`

func titlePage(info Info) string {
	title := html.EscapeString(info.Title)
	author := ""
	if info.Author != "" {
		author = "\n  <h2>作者: " + html.EscapeString(info.Author) + "</h2>"
	}
	return fmt.Sprintf(titlePageTemplate, title, title, author)
}

const chapterPageTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <title>%s</title>
  <style type="text/css">
    body { font-family: serif; margin: 20px; line-height: 1.6; }
    h1 { font-size: 1.5em; margin: 20px 0; text-align: center; }
  </style>
</head>
<body>
  <h1>%s</h1>
  <div class="chapter-content">
    %s
  </div>
</body>
</html>
`

func chapterPage(s Section) string {
	title := html.EscapeString(s.Title)
	body := strings.ReplaceAll(html.EscapeString(s.Body), "\n", "<br/>\n")
	return fmt.Sprintf(chapterPageTemplate, title, title, body)
}
