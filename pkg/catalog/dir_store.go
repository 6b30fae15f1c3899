package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	rts "github.com/goliatone/go-rts"
)

const definitionExt = ".toml"

// DirStore keeps one <name>.toml definition file per target in Dir. The ETag
// is a digest of the file contents.
type DirStore struct {
	Dir     string
	Options []rts.DefinitionOption
}

func (s DirStore) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("catalog: invalid definition name %q", name)
	}
	return filepath.Join(s.Dir, name+definitionExt), nil
}

func (s DirStore) Load(ctx context.Context, name string) (rts.Definition, Meta, bool, error) {
	if err := ctx.Err(); err != nil {
		return rts.Definition{}, Meta{}, false, err
	}
	path, err := s.path(name)
	if err != nil {
		return rts.Definition{}, Meta{}, false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return rts.Definition{}, Meta{}, false, nil
	}
	if err != nil {
		return rts.Definition{}, Meta{}, false, err
	}

	opts := append([]rts.DefinitionOption{
		rts.WithDefinitionName(name),
		rts.WithDefinitionSource(path),
	}, s.Options...)
	def, err := rts.ParseDefinition(data, opts...)
	if err != nil {
		return rts.Definition{}, Meta{}, false, err
	}
	if def.Name != name {
		return rts.Definition{}, Meta{}, false, fmt.Errorf("catalog: %s declares name %q", path, def.Name)
	}

	info, err := os.Stat(path)
	if err != nil {
		return rts.Definition{}, Meta{}, false, err
	}
	tag := digest(data)
	return def, Meta{Revision: tag, ETag: tag, Source: path, UpdatedAt: info.ModTime()}, true, nil
}

func (s DirStore) Save(ctx context.Context, def rts.Definition, _ Meta) (Meta, error) {
	if err := ctx.Err(); err != nil {
		return Meta{}, err
	}
	path, err := s.path(def.Name)
	if err != nil {
		return Meta{}, err
	}
	data, err := rts.EncodeDefinition(def)
	if err != nil {
		return Meta{}, err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return Meta{}, err
	}

	tmp, err := os.CreateTemp(s.Dir, "."+def.Name+"-*")
	if err != nil {
		return Meta{}, err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return Meta{}, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return Meta{}, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return Meta{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return Meta{}, err
	}
	tag := digest(data)
	return Meta{Revision: tag, ETag: tag, Source: path, UpdatedAt: info.ModTime()}, nil
}

func (s DirStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != definitionExt {
			continue
		}
		names = append(names, strings.TrimSuffix(name, definitionExt))
	}
	sort.Strings(names)
	return names, nil
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
