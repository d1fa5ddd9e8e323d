package post

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Post file format: a block of "Key: value" header lines, a blank line, then
// the body. Tag and Flag may repeat. Unknown header keys are rejected so a
// stray body pasted into a header block fails loudly instead of being
// swallowed.
//
// This format is deliberately private to this program; it is not MIME and
// carries no compatibility promise.

const flagDeleted = "deleted"

// Parse reads a post with the given identity from r.
func Parse(id string, r io.Reader) (*Post, error) {
	p := New(id)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	inBody := false
	var body strings.Builder
	lineNo := 0
	for sc.Scan() {
		line := sc.Text()
		lineNo++
		if inBody {
			body.WriteString(line)
			body.WriteByte('\n')
			continue
		}
		if line == "" {
			inBody = true
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("post %q: malformed header line %d: %q", id, lineNo, line)
		}
		value = strings.TrimSpace(value)
		switch key {
		case "Author":
			p.author = value
		case "Subject":
			p.subject = value
		case "Tag":
			if value != "" {
				p.tags = append(p.tags, value)
			}
		case "Message-Id":
			p.messageID = value
		case "Parent":
			p.parent = value
		case "Date":
			p.SetDate(value)
		case "Flag":
			if value == flagDeleted {
				p.deleted = true
			}
		default:
			return nil, fmt.Errorf("post %q: unknown header %q on line %d", id, key, lineNo)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("post %q: %w", id, err)
	}

	p.SetBody(body.String())
	p.modified = true
	return p, nil
}

// ParseString parses a post from a string. Mostly useful in tests.
func ParseString(id, s string) (*Post, error) {
	return Parse(id, strings.NewReader(s))
}

// Load reads the post file at path.
func Load(id, path string) (*Post, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open post file: %w", err)
	}
	defer func() { _ = f.Close() }()

	p, err := Parse(id, f)
	if err != nil {
		return nil, err
	}
	p.MarkSaved()
	return p, nil
}

// Encode writes the post in post file format.
func (p *Post) Encode(w io.Writer) error {
	var b strings.Builder
	writeHeader := func(key, value string) {
		if value == "" {
			return
		}
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteByte('\n')
	}

	writeHeader("Author", p.author)
	writeHeader("Subject", p.subject)
	for _, tag := range p.tags {
		writeHeader("Tag", tag)
	}
	writeHeader("Message-Id", p.messageID)
	writeHeader("Parent", p.parent)
	writeHeader("Date", p.dateRaw)
	if p.deleted {
		writeHeader("Flag", flagDeleted)
	}
	b.WriteByte('\n')
	b.WriteString(p.body)

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write post %q: %w", p.id, err)
	}
	return nil
}

// Save writes the post file at path and clears the modified flag.
func (p *Post) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create post file: %w", err)
	}
	if err := p.Encode(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close post file: %w", err)
	}
	p.MarkSaved()
	return nil
}

// String returns the post in post file format.
func (p *Post) String() string {
	var b strings.Builder
	_ = p.Encode(&b)
	return b.String()
}
