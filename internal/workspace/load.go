package workspace

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fixall/internal/diag"
	"fixall/internal/source"
)

// FallbackLanguage is the language of the implicit project created when no
// fixall.toml exists.
const FallbackLanguage = "text"

// binarySniffLen is how many leading bytes are checked for NUL.
const binarySniffLen = 8000

// Workspace is a loaded solution and where it came from.
type Workspace struct {
	Root string
	// Manifest is nil when the workspace was loaded without fixall.toml.
	Manifest *Manifest
	Solution *source.Solution
	// Problems collects FA4xxx diagnostics for files that could not be read.
	Problems *diag.Bag
}

// Jobs returns the manifest's jobs setting or 0.
func (w *Workspace) Jobs() int {
	if w == nil || w.Manifest == nil {
		return 0
	}
	return w.Manifest.Config.Jobs
}

// Rules returns the manifest's rule settings.
func (w *Workspace) Rules() RulesConfig {
	if w == nil || w.Manifest == nil {
		return RulesConfig{}
	}
	return w.Manifest.Config.Rules
}

// Load builds a solution for the workspace containing startDir. Without a
// manifest every file under startDir becomes part of one project named after
// the directory.
func Load(ctx context.Context, startDir string) (*Workspace, error) {
	manifest, ok, err := LoadManifest(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return loadDirectory(ctx, startDir)
	}
	return loadManifest(ctx, manifest)
}

func loadDirectory(ctx context.Context, dir string) (*Workspace, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", dir, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	cfg := ProjectConfig{Name: filepath.Base(root), Language: FallbackLanguage}
	return build(ctx, root, nil, []ProjectConfig{cfg})
}

func loadManifest(ctx context.Context, m *Manifest) (*Workspace, error) {
	return build(ctx, m.Root, m, m.Config.Projects)
}

func build(ctx context.Context, root string, m *Manifest, projects []ProjectConfig) (*Workspace, error) {
	b := source.NewBuilder(root)
	problems := diag.NewBag(0)
	claimed := make(map[string]struct{})

	for _, pc := range projects {
		dir := root
		if pc.Dir != "" {
			dir = filepath.Join(root, filepath.FromSlash(pc.Dir))
		}
		options := map[string]string{}
		if pc.Header != "" {
			options["header"] = pc.Header
		}
		pid := b.AddProjectWithOptions(pc.Name, pc.Language, dir, options)

		files, err := listFiles(ctx, dir, pc)
		if err != nil {
			return nil, fmt.Errorf("project %q: %w", pc.Name, err)
		}
		for _, f := range files {
			// файл принадлежит первому проекту, который его включил
			if _, dup := claimed[f.path]; dup {
				continue
			}
			claimed[f.path] = struct{}{}

			var flags source.DocumentFlags
			if f.generated {
				flags |= source.DocumentGenerated
			}
			if _, err := b.Load(pid, f.path, flags); err != nil {
				problems.Add(diag.NewProjectLevel(diag.SevError, diag.IOLoadFileError, pid,
					fmt.Sprintf("failed to load %s: %v", f.rel, err)))
			}
		}
	}

	return &Workspace{
		Root:     root,
		Manifest: m,
		Solution: b.Build(),
		Problems: problems,
	}, nil
}

type fileEntry struct {
	path      string
	rel       string
	generated bool
}

// listFiles returns the sorted files of one project after include, exclude
// and binary filtering. Hidden directories are skipped.
func listFiles(ctx context.Context, dir string, pc ProjectConfig) ([]fileEntry, error) {
	var files []fileEntry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != dir && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || name == ManifestName {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if len(pc.Include) > 0 && !matchAny(pc.Include, rel) {
			return nil
		}
		if matchAny(pc.Exclude, rel) {
			return nil
		}
		if binary, err := isBinary(path); err != nil || binary {
			return nil
		}
		files = append(files, fileEntry{path: path, rel: rel, generated: matchAny(pc.Generated, rel)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Сортируем для детерминированного порядка
	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })
	return files, nil
}

// matchAny matches rel against each pattern, first as a whole slash path and
// then by base name.
func matchAny(patterns []string, rel string) bool {
	base := filepath.Base(rel)
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
		if !strings.Contains(p, "/") {
			if ok, _ := filepath.Match(p, base); ok {
				return true
			}
		}
	}
	return false
}

func isBinary(path string) (bool, error) {
	// #nosec G304 -- path comes from walking the workspace
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	buf := make([]byte, binarySniffLen)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		// пустой файл считается текстовым
		return false, nil
	}
	return bytes.IndexByte(buf[:n], 0) >= 0, nil
}
