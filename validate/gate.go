// Package validate implements the intake gate for media candidates.
//
// The gate is a pure function layer: given a candidate's declared name, byte
// size and MIME type plus the session configuration, it classifies the media
// kind and either admits the candidate or rejects it with a structured,
// user-presentable reason. It holds no state and performs no I/O, so the same
// inputs always produce the same outcome.
package validate

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/code19m/errx"
	"github.com/dustin/go-humanize"
)

// Kind classifies a media candidate for validation and rendering purposes.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

const mimePDF = "application/pdf"

// Candidate describes a raw user-selected file before intake.
type Candidate struct {
	// Name is the original filename, used for extension matching and
	// rejection messages.
	Name string

	// Size is the declared byte size.
	Size int64

	// MIME is the declared content type.
	MIME string
}

// Gate enforces the intake rules from Config.
type Gate struct {
	cfg Config
}

// NewGate creates a Gate. A nil Accept map falls back to DefaultAccept.
func NewGate(cfg Config) *Gate {
	if cfg.Accept == nil {
		cfg.Accept = DefaultAccept()
	}
	return &Gate{cfg: cfg}
}

// Classify returns the media kind for a candidate. A "video/" MIME prefix
// means video; everything else, PDF included, is handled as image-kind.
func Classify(c Candidate) Kind {
	if strings.HasPrefix(c.MIME, "video/") {
		return KindVideo
	}
	return KindImage
}

// IsDocument reports whether the candidate is a PDF. Documents go through
// image-kind validation but get a distinct rendering affordance downstream.
func IsDocument(c Candidate) bool {
	return c.MIME == mimePDF || strings.EqualFold(filepath.Ext(c.Name), ".pdf")
}

// Validate classifies the candidate and checks it against the configured
// rules. On rejection the returned error carries a validation code and a
// message suitable for showing to the user.
func (g *Gate) Validate(c Candidate) (Kind, error) {
	kind := Classify(c)

	if kind == KindVideo && !g.cfg.AllowVideo {
		return kind, errx.New(
			fmt.Sprintf("%s: video files are not allowed here", c.Name),
			errx.WithCode(CodeVideoNotAllowed),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"file": c.Name}),
		)
	}

	if !g.typeAccepted(c) {
		return kind, errx.New(
			fmt.Sprintf("%s: unsupported format, accepted formats are %s", c.Name, g.acceptedFormats()),
			errx.WithCode(CodeTypeNotAccepted),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"file": c.Name, "mime": c.MIME}),
		)
	}

	limit := g.cfg.MaxImageBytes
	if kind == KindVideo {
		limit = g.cfg.MaxVideoBytes
	}
	if c.Size > limit {
		human := humanize.Bytes(uint64(limit))
		return kind, errx.New(
			fmt.Sprintf("%s: exceeds the %s limit for %s files", c.Name, human, kind),
			errx.WithCode(CodeFileTooLarge),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{
				"file":  c.Name,
				"kind":  string(kind),
				"limit": human,
			}),
		)
	}

	return kind, nil
}

// CheckCount verifies that admitting `incoming` new files on top of
// `existing` entries (committed plus pending) stays within MaxFiles.
// The whole incoming batch is rejected as one unit when it would not.
func (g *Gate) CheckCount(existing, incoming int) error {
	if existing+incoming <= g.cfg.MaxFiles {
		return nil
	}
	return errx.New(
		fmt.Sprintf("cannot add %d files: at most %d media entries are allowed", incoming, g.cfg.MaxFiles),
		errx.WithCode(CodeTooManyFiles),
		errx.WithType(errx.T_Validation),
		errx.WithDetails(errx.D{
			"existing": fmt.Sprint(existing),
			"incoming": fmt.Sprint(incoming),
			"max":      fmt.Sprint(g.cfg.MaxFiles),
		}),
	)
}

// MaxFiles exposes the configured ceiling for callers that track counts.
func (g *Gate) MaxFiles() int {
	return g.cfg.MaxFiles
}

func (g *Gate) typeAccepted(c Candidate) bool {
	if _, ok := g.cfg.Accept[c.MIME]; ok {
		return true
	}
	ext := strings.ToLower(filepath.Ext(c.Name))
	if ext == "" {
		return false
	}
	for _, exts := range g.cfg.Accept {
		for _, accepted := range exts {
			if strings.EqualFold(ext, accepted) {
				return true
			}
		}
	}
	return false
}

func (g *Gate) acceptedFormats() string {
	exts := make([]string, 0, len(g.cfg.Accept))
	for _, list := range g.cfg.Accept {
		for _, ext := range list {
			exts = append(exts, strings.TrimPrefix(ext, "."))
		}
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}
