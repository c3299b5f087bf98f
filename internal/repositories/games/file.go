package games

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/KirkDiggler/rpg-helper-bot/internal/domain/character"
	"github.com/KirkDiggler/rpg-helper-bot/internal/domain/game"
	dnderr "github.com/KirkDiggler/rpg-helper-bot/internal/errors"
)

// File names inside a game directory
const (
	CharactersFile       = "characters.json"
	UserToCharactersFile = "user_to_characters.json"
	UserDefaultFile      = "user_default.json"
	MacrosFile           = "macros.json"
)

// FileRepoConfig holds configuration for the file repository
type FileRepoConfig struct {
	// Root is the directory game names are resolved against
	Root string
}

type fileRepo struct {
	root string
}

// NewFileRepository creates a repository where each game is a directory of JSON documents
func NewFileRepository(cfg *FileRepoConfig) Repository {
	if cfg == nil {
		panic("FileRepoConfig cannot be nil")
	}

	root := cfg.Root
	if root == "" {
		root = "."
	}

	return &fileRepo{root: root}
}

// dir returns the directory of a game, or false when the name escapes the root
func (r *fileRepo) dir(name string) (string, bool) {
	if name == "" || !filepath.IsLocal(name) {
		return "", false
	}
	return filepath.Join(r.root, name), true
}

func (r *fileRepo) Exists(_ context.Context, name string) (bool, error) {
	dir, ok := r.dir(name)
	if !ok {
		return false, nil
	}

	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to stat game directory")
	}

	return info.IsDir(), nil
}

func (r *fileRepo) Load(ctx context.Context, name string) (*game.State, error) {
	exists, err := r.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, dnderr.NotFoundf("Game path `%s` does not exist", name).
			WithMeta("game", name)
	}

	dir, _ := r.dir(name)
	state := game.NewState()

	found, err := readJSON(filepath.Join(dir, MacrosFile), &state.Macros)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, dnderr.NotFoundf("Game `%s` has no %s", name, MacrosFile).
			WithMeta("game", name)
	}

	var characters map[string]*character.Character
	if _, err := readJSON(filepath.Join(dir, CharactersFile), &characters); err != nil {
		return nil, err
	}
	state.Characters = characters

	if _, err := readJSON(filepath.Join(dir, UserToCharactersFile), &state.UserToCharacters); err != nil {
		return nil, err
	}

	if _, err := readJSON(filepath.Join(dir, UserDefaultFile), &state.UserDefault); err != nil {
		return nil, err
	}

	return state.Normalize(), nil
}

func (r *fileRepo) Save(_ context.Context, name string, state *game.State) error {
	if state == nil {
		return dnderr.InvalidArgument("state cannot be nil")
	}

	dir, ok := r.dir(name)
	if !ok {
		return dnderr.NotFoundf("Game path `%s` does not exist", name)
	}

	files := []struct {
		name  string
		value any
	}{
		{name: CharactersFile, value: state.Characters},
		{name: UserToCharactersFile, value: state.UserToCharacters},
		{name: UserDefaultFile, value: state.UserDefault},
	}

	staged := make([]*stagedFile, 0, len(files))
	defer func() {
		for _, f := range staged {
			f.discard()
		}
	}()

	for _, f := range files {
		sf, err := stageJSON(filepath.Join(dir, f.name), f.value)
		if err != nil {
			return err
		}
		staged = append(staged, sf)
	}

	return commitStaged(staged)
}

func (r *fileRepo) SaveMacros(_ context.Context, name string, macros map[string]string) error {
	dir, ok := r.dir(name)
	if !ok {
		return dnderr.NotFoundf("Game path `%s` does not exist", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to create game directory")
	}

	if macros == nil {
		macros = map[string]string{}
	}

	return writeJSON(filepath.Join(dir, MacrosFile), macros)
}

// readJSON decodes path into v. A missing file is not an error.
func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, dnderr.WrapWithCode(err, dnderr.CodeInternal, fmt.Sprintf("failed to read %s", filepath.Base(path)))
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, dnderr.WrapWithCode(err, dnderr.CodeInternal, fmt.Sprintf("failed to decode %s", filepath.Base(path)))
	}

	return true, nil
}

// stagedFile is an encoded document waiting in a temp file next to its
// target, along with what the target held before
type stagedFile struct {
	path     string
	tmp      string
	previous []byte
	existed  bool
}

// writeJSON writes a single document through a temp file and rename
func writeJSON(path string, v any) error {
	sf, err := stageJSON(path, v)
	if err != nil {
		return err
	}
	defer sf.discard()

	return commitStaged([]*stagedFile{sf})
}

// stageJSON encodes v with sorted keys and four space indentation into a
// temp file. The current target contents are kept for rollback; a target
// that cannot be read fails the stage before anything is replaced.
func stageJSON(path string, v any) (*stagedFile, error) {
	name := filepath.Base(path)

	sf := &stagedFile{path: path}
	previous, err := os.ReadFile(path)
	switch {
	case err == nil:
		sf.previous = previous
		sf.existed = true
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInternal, fmt.Sprintf("failed to read %s", name))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInternal, fmt.Sprintf("failed to encode %s", name))
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+name+"-*")
	if err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to create temp file")
	}
	sf.tmp = tmp.Name()

	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		sf.discard()
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to set file mode")
	}

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		sf.discard()
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInternal, fmt.Sprintf("failed to write %s", name))
	}
	if err := tmp.Close(); err != nil {
		sf.discard()
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInternal, fmt.Sprintf("failed to write %s", name))
	}

	return sf, nil
}

// discard removes the temp file if it was never renamed
func (f *stagedFile) discard() {
	if f.tmp != "" {
		_ = os.Remove(f.tmp)
	}
}

// restore puts back what the target held before the rename
func (f *stagedFile) restore() {
	if !f.existed {
		_ = os.Remove(f.path)
		return
	}
	_ = os.WriteFile(f.path, f.previous, 0o644)
}

// commitStaged renames every staged file over its target. When one rename
// fails the targets already replaced get their previous contents back.
func commitStaged(staged []*stagedFile) error {
	for i, f := range staged {
		if err := os.Rename(f.tmp, f.path); err != nil {
			for _, done := range staged[:i] {
				done.restore()
			}
			return dnderr.WrapWithCode(err, dnderr.CodeInternal, fmt.Sprintf("failed to replace %s", filepath.Base(f.path)))
		}
		f.tmp = ""
	}

	return nil
}
