// Package areas loads area collections into the store.
package areas

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grovetools/areatrip/internal/store"
	"github.com/grovetools/areatrip/pkg/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Loader reads a collection file and publishes it to the store.
type Loader struct {
	store  *store.Store
	logger *logrus.Entry
	now    func() time.Time
}

// NewLoader creates a loader.
func NewLoader(st *store.Store, logger *logrus.Entry) *Loader {
	return &Loader{store: st, logger: logger, now: time.Now}
}

// Load marks the download in progress, parses path and stores the
// collection. The download flag is reset on failure.
func (l *Loader) Load(ctx context.Context, path string) (*models.CompressedAreaCollection, error) {
	l.store.Dispatch(store.SetDownloading(true))

	collection, err := l.read(ctx, path)
	if err != nil {
		l.store.Dispatch(store.SetDownloading(false))
		l.logger.WithError(err).WithField("path", path).Error("Area download failed")
		return nil, err
	}

	l.store.Dispatch(store.BirdAreasDownloaded(collection))
	l.logger.WithFields(logrus.Fields{
		"path":  path,
		"type":  collection.Type,
		"areas": collection.Len(),
	}).Info("Areas loaded")
	return collection, nil
}

func (l *Loader) read(ctx context.Context, path string) (*models.CompressedAreaCollection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read area file: %w", err)
	}
	collection, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if collection.DownloadedAt.IsZero() {
		collection.DownloadedAt = l.now().UTC()
	}
	return collection, nil
}

// Parse decodes a collection. ext selects JSON (".json") or YAML (anything
// else). A bare list of areas is accepted as well.
func Parse(data []byte, ext string) (*models.CompressedAreaCollection, error) {
	var (
		collection models.CompressedAreaCollection
		list       []models.Area
	)
	unmarshal := yaml.Unmarshal
	isList := yamlList
	if strings.EqualFold(ext, ".json") {
		unmarshal = json.Unmarshal
		isList = func(data []byte) bool {
			return strings.HasPrefix(strings.TrimSpace(string(data)), "[")
		}
	}

	if isList(data) {
		if err := unmarshal(data, &list); err != nil {
			return nil, err
		}
		collection.Areas = list
	} else if err := unmarshal(data, &collection); err != nil {
		return nil, err
	}

	if collection.Type == "" {
		collection.Type = models.AreaTypeBird
	}
	if !collection.Type.Valid() {
		return nil, fmt.Errorf("unknown area type %q", collection.Type)
	}
	for i := range collection.Areas {
		area := &collection.Areas[i]
		if strings.TrimSpace(area.ID) == "" {
			return nil, fmt.Errorf("area %d has no id", i)
		}
		if area.Type == "" {
			area.Type = collection.Type
		}
	}
	return &collection, nil
}

// yamlList reports whether the first document is a sequence. Document
// markers and leading comments do not count.
func yamlList(data []byte) bool {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil || len(doc.Content) == 0 {
		return false
	}
	return doc.Content[0].Kind == yaml.SequenceNode
}
