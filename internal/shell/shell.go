// Package shell implements the interactive command interface over the post
// store: listing and showing posts, printing thread trees, reparenting,
// tagging, deleting, importing email files and saving back to disk.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvarga/threadbase/internal/eml"
	"github.com/dvarga/threadbase/internal/post"
	"github.com/dvarga/threadbase/internal/store"
)

// Shell dispatches commands against a single store. It is single-threaded:
// one command runs at a time, which is also what keeps the non-thread-safe
// store safe to use.
type Shell struct {
	store   *store.Store
	mailDir string
	out     io.Writer
	log     zerolog.Logger
}

func New(s *store.Store, mailDir string, out io.Writer, log zerolog.Logger) *Shell {
	return &Shell{store: s, mailDir: mailDir, out: out, log: log}
}

// Run reads commands from r until EOF or quit. Command errors are printed
// and do not stop the loop.
func (sh *Shell) Run(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for {
		fmt.Fprint(sh.out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(sh.out)
			return sc.Err()
		}
		quit, err := sh.Execute(sc.Text())
		if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// Execute runs a single command line and reports whether the shell should
// exit.
func (sh *Shell) Execute(line string) (quit bool, err error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false, nil
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "ls":
		return false, sh.list()
	case "show":
		return false, sh.show(args)
	case "tree":
		return false, sh.tree(args)
	case "reparent":
		return false, sh.reparent(args)
	case "rm":
		return false, sh.remove(args)
	case "tag":
		return false, sh.tag(args, true)
	case "untag":
		return false, sh.tag(args, false)
	case "import":
		return false, sh.importEml(args)
	case "cycles":
		return false, sh.cycles()
	case "save":
		return false, sh.save()
	case "help":
		return false, sh.help()
	case "quit", "q":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

func (sh *Shell) help() error {
	fmt.Fprint(sh.out, `commands:
  ls                      list live posts
  show <id>               print one post
  tree [id]               print the thread tree (all threads without id)
  reparent <id> <ref|->   set a post's parent reference ("-" clears it)
  rm <id>                 delete a post
  tag <id> <tag>          add a tag
  untag <id> <tag>        remove a tag
  import <file.eml>       import an email file as a new post
  cycles                  list posts with no well-defined thread position
  save                    write modified posts back to the mail directory
  quit                    exit
`)
	return nil
}

func (sh *Shell) list() error {
	store.AllLive(sh.store).ForEach(func(p *post.Post) {
		fmt.Fprintf(sh.out, "%-6s %-20s %s\n", p.ID(), p.Author(), p.Subject())
	})
	return nil
}

func (sh *Shell) show(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: show <id>")
	}
	p, err := sh.store.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Fprint(sh.out, p.String())
	return nil
}

func (sh *Shell) tree(args []string) error {
	rootID := ""
	if len(args) > 0 {
		id, err := sh.store.Root(args[0])
		if err != nil {
			return err
		}
		rootID = id
	}
	for _, item := range sh.store.WalkThread(rootID) {
		if item.Pos != store.PosBegin {
			continue
		}
		p, err := sh.store.Get(item.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "%s%s %s\n", strings.Repeat("  ", item.Level), p.ID(), p.Subject())
	}
	return nil
}

func (sh *Shell) reparent(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: reparent <id> <ref|->")
	}
	ref := args[1]
	if ref == "-" {
		ref = ""
	}
	return sh.store.SetParent(args[0], ref)
}

func (sh *Shell) remove(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: rm <id>")
	}
	return sh.store.Delete(args[0])
}

func (sh *Shell) tag(args []string, add bool) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: tag|untag <id> <tag>")
	}
	p, err := sh.store.Get(args[0])
	if err != nil {
		return err
	}
	if add {
		p.AddTag(args[1])
	} else {
		p.RemoveTag(args[1])
	}
	return nil
}

func (sh *Shell) importEml(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: import <file.eml>")
	}
	p, err := eml.ImportFile(sh.store, args[0])
	if err != nil {
		return err
	}
	sh.log.Info().Str("id", p.ID()).Str("subject", p.Subject()).Msg("imported email")
	fmt.Fprintf(sh.out, "imported as post %s\n", p.ID())
	return nil
}

func (sh *Shell) cycles() error {
	cycles := sh.store.Cycles()
	if cycles.Len() == 0 {
		fmt.Fprintln(sh.out, "no cycles")
		return nil
	}
	fmt.Fprintf(sh.out, "posts in cycles: %s\n", strings.Join(cycles.IDs(), " "))
	return nil
}

func (sh *Shell) save() error {
	n, err := sh.store.SaveDir(sh.mailDir)
	if err != nil {
		return err
	}
	sh.log.Info().Int("posts", n).Str("dir", sh.mailDir).Msg("saved")
	fmt.Fprintf(sh.out, "saved %d post(s)\n", n)
	return nil
}
