package post

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// Post is a single message on the heap of archived mail. It usually mirrors
// a post file on disk; the modified flag tracks whether that file is stale.
//
// The parent reference is stored verbatim: it may be another post's ID, a
// Message-Id that resolves through the store, or a key that does not resolve
// at all. Resolution is the store's job, not the post's.
type Post struct {
	id        string
	author    string
	subject   string
	tags      []string
	messageID string
	parent    string
	dateRaw   string
	date      time.Time
	body      string
	deleted   bool
	modified  bool
	onTouch   func()
}

var reSubjectPrefix = regexp.MustCompile(`^[Rr][Ee]:\s*`)

// New returns an empty post with the given identity.
func New(id string) *Post {
	return &Post{id: id, modified: true}
}

// ID returns the post's identity. Identities are assigned by the store and
// never change.
func (p *Post) ID() string {
	return p.id
}

// Touch marks the post modified and notifies the owning store that derived
// thread structure may be stale. Every mutator calls it.
func (p *Post) Touch() {
	p.modified = true
	if p.onTouch != nil {
		p.onTouch()
	}
}

// SetTouchHook installs the store's invalidation callback. The store calls
// this when the post is added; nothing else should.
func (p *Post) SetTouchHook(fn func()) {
	p.onTouch = fn
}

// Modified reports whether the post differs from its backing file.
func (p *Post) Modified() bool {
	return p.modified
}

// MarkSaved clears the modified flag after the post file has been written.
func (p *Post) MarkSaved() {
	p.modified = false
}

func (p *Post) Author() string {
	return p.author
}

func (p *Post) SetAuthor(author string) {
	p.author = author
	p.Touch()
}

// RealSubject returns the subject exactly as stored.
func (p *Post) RealSubject() string {
	return p.subject
}

// Subject returns the subject with a leading "Re:" prefix removed.
func (p *Post) Subject() string {
	return strings.TrimSpace(reSubjectPrefix.ReplaceAllString(p.subject, ""))
}

func (p *Post) SetSubject(subject string) {
	p.subject = subject
	p.Touch()
}

func (p *Post) MessageID() string {
	return p.messageID
}

func (p *Post) SetMessageID(messageID string) {
	p.messageID = messageID
	p.Touch()
}

// Parent returns the raw parent reference, or "" when the post has none.
func (p *Post) Parent() string {
	return p.parent
}

// SetParent stores the raw parent reference verbatim. The reference is not
// validated: it may name a post that does not exist yet.
func (p *Post) SetParent(parent string) {
	p.parent = parent
	p.Touch()
}

// Tags returns the post's tags. The returned slice must not be modified.
func (p *Post) Tags() []string {
	return p.tags
}

func (p *Post) SetTags(tags []string) {
	p.tags = append([]string(nil), tags...)
	p.Touch()
}

// AddTag appends a tag unless the post already has it.
func (p *Post) AddTag(tag string) {
	if p.HasTag(tag) {
		return
	}
	p.tags = append(p.tags, tag)
	p.Touch()
}

func (p *Post) RemoveTag(tag string) {
	for i, t := range p.tags {
		if t == tag {
			p.tags = append(p.tags[:i], p.tags[i+1:]...)
			p.Touch()
			return
		}
	}
}

func (p *Post) HasTag(tag string) bool {
	for _, t := range p.tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasTagFrom reports whether the post has at least one of the given tags.
func (p *Post) HasTagFrom(tags []string) bool {
	for _, t := range tags {
		if p.HasTag(t) {
			return true
		}
	}
	return false
}

// Date returns the raw date header value.
func (p *Post) Date() string {
	return p.dateRaw
}

// SetDate stores the raw date string and tries to parse it as an RFC 5322
// date. An unparsable date is kept verbatim and the timestamp becomes zero.
func (p *Post) SetDate(date string) {
	p.dateRaw = date
	p.date = time.Time{}
	if t, err := mail.ParseDate(date); err == nil {
		p.date = t
	}
	p.Touch()
}

// Time returns the parsed date, or the zero time when the date is missing
// or unparsable.
func (p *Post) Time() time.Time {
	return p.date
}

// Timestamp returns the post's creation time as a Unix timestamp, or 0 when
// the date is missing or unparsable. Used for chronological child ordering.
func (p *Post) Timestamp() int64 {
	if p.date.IsZero() {
		return 0
	}
	return p.date.Unix()
}

func (p *Post) Body() string {
	return p.body
}

// SetBody normalizes the body: leading and trailing whitespace is stripped
// and a single trailing newline added. An empty body stays empty.
func (p *Post) SetBody(body string) {
	body = strings.TrimSpace(body)
	if body != "" {
		body += "\n"
	}
	p.body = body
	p.Touch()
}

// BodyContains reports whether the body matches the given regular expression.
func (p *Post) BodyContains(re *regexp.Regexp) bool {
	return re.MatchString(p.body)
}

func (p *Post) Deleted() bool {
	return p.deleted
}

// Delete clears the post's content and flags it deleted. The identity, the
// raw parent reference and the Message-Id are retained so that references
// held by other posts stay meaningful. Deletion is irreversible in content.
func (p *Post) Delete() {
	p.author = ""
	p.subject = ""
	p.tags = nil
	p.dateRaw = ""
	p.date = time.Time{}
	p.body = ""
	p.deleted = true
	p.Touch()
}
