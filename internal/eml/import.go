// Package eml imports raw RFC 5322 email messages into the post store.
package eml

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jhillyerd/enmime"

	"github.com/dvarga/threadbase/internal/post"
	"github.com/dvarga/threadbase/internal/store"
)

// ImportMessage parses one email from r and adds it to the store as a fresh
// post. The parent reference is taken from In-Reply-To, falling back to the
// last References entry; it is stored verbatim as a Message-Id and resolves
// through the store's Message-Id index once the referent is present, which
// may be later than this message.
func ImportMessage(s *store.Store, r io.Reader) (*post.Post, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}

	p := s.CreateEmpty()
	p.SetAuthor(env.GetHeader("From"))
	p.SetSubject(env.GetHeader("Subject"))
	p.SetMessageID(strings.TrimSpace(env.GetHeader("Message-Id")))
	p.SetDate(env.GetHeader("Date"))
	p.SetParent(parentReference(env))
	p.SetBody(env.Text)
	return p, nil
}

// ImportFile imports the email file at path.
func ImportFile(s *store.Store, path string) (*post.Post, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open email file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ImportMessage(s, f)
}

// parentReference extracts the Message-Id of the message this one replies
// to, or "" when it starts a thread.
func parentReference(env *enmime.Envelope) string {
	if ref := strings.TrimSpace(env.GetHeader("In-Reply-To")); ref != "" {
		return ref
	}
	refs := strings.Fields(env.GetHeader("References"))
	if len(refs) > 0 {
		return refs[len(refs)-1]
	}
	return ""
}
