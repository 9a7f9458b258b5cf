// Package resume turns uploaded resume files into plain text.
package resume

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	FormatText = "txt"
	FormatPDF  = "pdf"
	FormatDOCX = "docx"

	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Format picks the decoder from the file extension, falling back to the
// declared content type. It returns "" for formats we cannot read.
func Format(filename, contentType string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return FormatText
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	}

	mediaType, _, _ := strings.Cut(contentType, ";")
	switch strings.TrimSpace(strings.ToLower(mediaType)) {
	case "text/plain":
		return FormatText
	case "application/pdf":
		return FormatPDF
	case mimeDOCX:
		return FormatDOCX
	}
	return ""
}

// ExtractText returns the text of a .txt, .pdf or .docx file. Unsupported
// formats, unreadable files and files without text are validation errors.
func ExtractText(filename, contentType string, data []byte) (string, error) {
	var (
		text string
		err  error
	)

	switch Format(filename, contentType) {
	case FormatText:
		text = strings.ToValidUTF8(string(data), string(utf8.RuneError))
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	default:
		return "", common.Errorf(common.ErrorValidation,
			"Unsupported file type %q. Please upload a PDF, DOCX or TXT file.", filepath.Ext(filename))
	}
	if err != nil {
		return "", common.Errorf(common.ErrorValidation, "Could not read %s: %v", filename, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", common.Errorf(common.ErrorValidation, "No text could be extracted from %s", filename)
	}
	return text, nil
}

func extractPDF(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("parse pdf: %v", p)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer doc.Close()

	return documentText(doc.Editable().GetContent())
}

// documentText pulls the visible text out of WordprocessingML: the content
// of w:t runs, with paragraphs and breaks turned into newlines.
func documentText(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	dec.Strict = false

	var (
		b      strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteString("\t")
			case "br", "cr":
				b.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}
