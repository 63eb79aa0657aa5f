package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/YuminosukeSato/dslr/pkg/errors"
)

const modelsBucket = "models"

// ErrModelNotFound はレジストリに指定された名前のモデルが無い場合のエラー
var ErrModelNotFound = errors.New("model not found in registry")

// RegistryEntry はList()が返すモデルの要約
type RegistryEntry struct {
	Name      string    `json:"name"`
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Classes   []string  `json:"classes"`
}

// Registry は名前付きで学習済みモデルを保存するbboltデータベース。
// 値はSaveModelToWriterと同じJSON形式で保存される。
type Registry struct {
	db *bbolt.DB
}

// OpenRegistry はpathのbboltファイルを開く（無ければ作成する）
func OpenRegistry(path string) (*Registry, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open model registry %s", path)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(modelsBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create models bucket")
	}
	return &Registry{db: db}, nil
}

// Close はデータベースを閉じる
func (r *Registry) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Put はモデルをnameで保存する。同名のモデルは上書きされる。
func (r *Registry) Put(name string, mw *ModelWeights) error {
	if name == "" {
		return errors.NewValidationError("name", "must not be empty", name)
	}
	if err := mw.Validate(); err != nil {
		return errors.NewModelError("Registry.Put", "refusing to store invalid model", err)
	}

	var buf bytes.Buffer
	if err := SaveModelToWriter(mw, &buf, FormatJSON); err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(modelsBucket)).Put([]byte(name), buf.Bytes())
	})
}

// Get はnameのモデルを読み込んで検証する
func (r *Registry) Get(name string) (*ModelWeights, error) {
	var data []byte
	err := r.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(modelsBucket)).Get([]byte(name))
		if v == nil {
			return errors.Wrapf(ErrModelNotFound, "name %q", name)
		}
		// bboltの値はトランザクション内でのみ有効
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	mw, err := LoadModelFromReader(bytes.NewReader(data), FormatJSON)
	if err != nil {
		return nil, errors.NewModelFormatError("registry:"+name, "cannot decode json", err)
	}
	if err := mw.Validate(); err != nil {
		return nil, errors.NewModelFormatError("registry:"+name, "invalid contents", err)
	}
	return mw, nil
}

// List は保存されているモデルを名前順に返す
func (r *Registry) List() ([]RegistryEntry, error) {
	var entries []RegistryEntry
	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(modelsBucket)).ForEach(func(k, v []byte) error {
			var mw ModelWeights
			if err := json.Unmarshal(v, &mw); err != nil {
				return errors.NewModelFormatError("registry:"+string(k), "cannot decode json", err)
			}
			entries = append(entries, RegistryEntry{
				Name:      string(k),
				ID:        mw.ID,
				CreatedAt: mw.CreatedAt,
				Classes:   mw.Classes,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Delete はnameのモデルを削除する。存在しない場合はErrModelNotFound。
func (r *Registry) Delete(name string) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(modelsBucket))
		if b.Get([]byte(name)) == nil {
			return errors.Wrapf(ErrModelNotFound, "name %q", name)
		}
		return b.Delete([]byte(name))
	})
}
