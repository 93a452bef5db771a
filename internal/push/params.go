package push

import (
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/raccreative/clawdrop/internal/syncerr"
	"github.com/raccreative/clawdrop/internal/target"
	"github.com/spf13/afero"
)

const DefaultVersion = "0.0.1"

var Platforms = []string{"windows", "linux", "mac", "html"}

// Args is what the user asked for. Empty fields are filled from the
// shorthand, the stored target or defaults.
type Args struct {
	ID        *uint64
	OS        string
	Exe       string
	Version   string
	Path      string
	Ignore    []string
	NoBump    bool
	Force     bool
	Shorthand string
}

// Params are the resolved push parameters.
type Params struct {
	GameID uint64
	OS     string
	// Exe is the executable path relative to the build root, slash separated.
	Exe     string
	Version string
}

// Shorthand is the parsed form of `<id>:<os>/<exe>:<version>`.
type Shorthand struct {
	ID      *uint64
	OS      string
	Exe     string
	Version string
}

func ParseShorthand(s string) (*Shorthand, error) {
	left, right, ok := strings.Cut(s, "/")
	if !ok {
		return nil, shorthandError(s)
	}

	sh := &Shorthand{OS: left}
	if idStr, platform, ok := strings.Cut(left, ":"); ok {
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			return nil, syncerr.Validation("shorthand id %q must be a number", idStr)
		}
		sh.ID = &id
		sh.OS = platform
	}

	sh.Exe = right
	if exe, version, ok := strings.Cut(right, ":"); ok {
		if version == "" {
			return nil, shorthandError(s)
		}
		sh.Exe = exe
		sh.Version = version
	}

	if sh.OS == "" || sh.Exe == "" {
		return nil, shorthandError(s)
	}
	return sh, nil
}

func shorthandError(s string) error {
	return syncerr.Validation("invalid shorthand %q, expected <id>:<os>/<executable>:<version> (id and version optional)", s)
}

// BumpVersion increments the trailing run of digits, keeping its width:
// 1.0.9 -> 1.0.10, build-007 -> build-008. Versions without trailing digits
// are returned unchanged.
func BumpVersion(v string) string {
	i := len(v)
	for i > 0 && v[i-1] >= '0' && v[i-1] <= '9' {
		i--
	}
	// versions made only of digits are left alone
	if i == 0 || i == len(v) {
		return v
	}
	digits := v[i:]
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return v
	}
	next := strconv.FormatUint(n+1, 10)
	if pad := len(digits) - len(next); pad > 0 {
		next = strings.Repeat("0", pad) + next
	}
	return v[:i] + next
}

// ResolveParams merges args with the stored target. Precedence is
// shorthand, then flags, then target, then defaults.
func ResolveParams(fs afero.Fs, args Args, game *target.Game) (*Params, error) {
	var sh *Shorthand
	if args.Shorthand != "" {
		var err error
		if sh, err = ParseShorthand(args.Shorthand); err != nil {
			return nil, err
		}
	}

	var p Params
	switch {
	case sh != nil && sh.ID != nil:
		p.GameID = *sh.ID
	case args.ID != nil:
		p.GameID = *args.ID
	case game != nil:
		p.GameID = game.ID
	default:
		return nil, syncerr.Validation("no game id given and no target set, use --id or the shorthand")
	}

	p.OS = args.OS
	if sh != nil {
		p.OS = sh.OS
	}
	if p.OS == "" {
		return nil, syncerr.Validation("operating system missing, use --os with one of %s", strings.Join(Platforms, ", "))
	}
	if !slices.Contains(Platforms, p.OS) {
		return nil, syncerr.Validation("operating system %q is not one of %s", p.OS, strings.Join(Platforms, ", "))
	}

	exe := args.Exe
	if sh != nil {
		exe = sh.Exe
	}
	if exe == "" {
		return nil, syncerr.Validation("executable name missing, use --exe or the shorthand")
	}
	rel, ok := findExecutable(fs, args.Path, exe)
	if !ok {
		return nil, syncerr.Validation("executable %q not found in %s or its direct subdirectories", exe, args.Path)
	}
	p.Exe = rel

	switch {
	case sh != nil && sh.Version != "":
		p.Version = sh.Version
	case args.Version != "":
		p.Version = args.Version
	case game.VersionFor(p.OS) != "":
		p.Version = game.VersionFor(p.OS)
		if !args.NoBump {
			p.Version = BumpVersion(p.Version)
		}
	default:
		p.Version = DefaultVersion
	}

	return &p, nil
}

// findExecutable looks for name at root, then one directory down.
func findExecutable(fs afero.Fs, root, name string) (string, bool) {
	if isFile(fs, filepath.Join(root, filepath.FromSlash(name))) {
		return filepath.ToSlash(name), true
	}

	entries, err := afero.ReadDir(fs, root)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if isFile(fs, filepath.Join(root, e.Name(), filepath.FromSlash(name))) {
			return path.Join(e.Name(), filepath.ToSlash(name)), true
		}
	}
	return "", false
}

func isFile(fs afero.Fs, p string) bool {
	info, err := fs.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
