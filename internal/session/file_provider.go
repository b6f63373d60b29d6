package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/grovetools/areatrip/pkg/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// FileProvider keeps the signed-in identity in a YAML file. A missing file is
// an anonymous session. Sign-in itself happens elsewhere and ends with a call
// to SignIn.
type FileProvider struct {
	path   string
	logger *logrus.Entry
}

// NewFileProvider creates a provider backed by path.
func NewFileProvider(path string, logger *logrus.Entry) *FileProvider {
	return &FileProvider{path: filepath.Clean(path), logger: logger}
}

// Path returns the session file location.
func (p *FileProvider) Path() string {
	return p.path
}

// Read loads the identity from disk.
func (p *FileProvider) Read() (models.Identity, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.Identity{}, nil
		}
		return models.Identity{}, fmt.Errorf("read session file: %w", err)
	}
	var identity models.Identity
	if err := yaml.Unmarshal(data, &identity); err != nil {
		return models.Identity{}, fmt.Errorf("parse session file: %w", err)
	}
	return identity, nil
}

// SignIn persists identity as the current session.
func (p *FileProvider) SignIn(ctx context.Context, identity models.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if identity.Anonymous() {
		return fmt.Errorf("sign in requires a uid")
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	data, err := yaml.Marshal(identity)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return os.Rename(tmp, p.path)
}

// SignOut removes the session file.
func (p *FileProvider) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// Watch emits the identity on disk now and whenever the file changes.
func (p *FileProvider) Watch(ctx context.Context) (<-chan models.Identity, error) {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// fsnotify does not follow renames of a single file, so watch the
	// directory and filter by name.
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	out := make(chan models.Identity, 1)

	go func() {
		defer close(out)
		defer watcher.Close()

		var last *models.Identity
		emit := func() bool {
			identity, err := p.Read()
			if err != nil {
				p.logger.WithError(err).Warn("Unreadable session file, treating as signed out")
				identity = models.Identity{}
			}
			if last != nil && *last == identity {
				return true
			}
			last = &identity
			select {
			case out <- identity:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				p.logger.WithError(err).Warn("Session watcher error")
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != p.path {
					continue
				}
				if !emit() {
					return
				}
			}
		}
	}()

	return out, nil
}
