package blob

import (
	"SchemaDesk/internal/model"
	"SchemaDesk/internal/schema"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxBytes - предел размера одного вложения.
const DefaultMaxBytes = 5 << 20

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9.]`)

// Upload - входные данные загрузки одного файла в поле элемента.
type Upload struct {
	Field       model.FieldSchema
	FileName    string
	ContentType string
	Data        []byte
	// PreviousURL - текущее значение поля; старый объект удаляется перед записью.
	PreviousURL string
}

// Result - то, что попадает в значение поля.
type Result struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// Uploader проверяет и складывает вложения в Store.
type Uploader struct {
	store    Store
	maxBytes int64
	log      *zap.SugaredLogger
	now      func() time.Time
}

// NewUploader создаёт загрузчик. maxBytes <= 0 означает DefaultMaxBytes.
func NewUploader(store Store, maxBytes int64, log *zap.SugaredLogger) *Uploader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Uploader{store: store, maxBytes: maxBytes, log: log, now: time.Now}
}

// MaxBytes возвращает предел размера файла.
func (u *Uploader) MaxBytes() int64 { return u.maxBytes }

// Upload проверяет тип и размер, удаляет предыдущий файл поля и сохраняет новый
// под ключом uploads/<поле>/<unixMillis>_<имя>.
func (u *Uploader) Upload(ctx context.Context, in Upload) (Result, error) {
	if err := u.check(in); err != nil {
		return Result{}, err
	}

	if in.PreviousURL != "" {
		if err := u.Remove(ctx, in.PreviousURL); err != nil {
			// старый файл не мешает загрузке нового
			u.log.Warnw("Upload: failed to delete previous file", "url", in.PreviousURL, "error", err)
		}
	}

	key := ObjectKey(in.Field.Name, in.FileName, u.now())
	meta := map[string]string{
		"fieldName":    in.Field.Name,
		"fieldType":    string(in.Field.Type),
		"originalName": in.FileName,
	}
	if err := u.store.Put(ctx, key, in.Data, in.ContentType, meta); err != nil {
		return Result{}, err
	}
	u.log.Infow("Upload: stored", "key", key, "size", len(in.Data), "content_type", in.ContentType)
	return Result{URL: u.store.URL(key), Key: key}, nil
}

// Remove удаляет объект по адресу. Адреса вне хранилища пропускаются.
func (u *Uploader) Remove(ctx context.Context, url string) error {
	key, ok := u.store.KeyFromURL(url)
	if !ok {
		return nil
	}
	return u.store.Delete(ctx, key)
}

// Probe пробует записать и удалить тестовый объект. false означает,
// что хранилище отказывает в записи (нет прав или тарифа).
func (u *Uploader) Probe(ctx context.Context) (bool, error) {
	const key = "probe/write-check.txt"
	if err := u.store.Put(ctx, key, []byte("test"), "text/plain", nil); err != nil {
		if errors.Is(err, ErrAccessDenied) {
			return false, nil
		}
		return false, err
	}
	if err := u.store.Delete(ctx, key); err != nil {
		u.log.Warnw("Probe: failed to delete probe object", "error", err)
	}
	return true, nil
}

func (u *Uploader) check(in Upload) error {
	var ve model.ValidationError
	cat := schema.AttachmentCategoryFor(in.Field)
	switch {
	case !schema.IsAttachment(in.Field):
		ve.Add(in.Field.Name, fmt.Sprintf("field of type %q does not accept files", in.Field.Type))
	case !schema.MIMEAllowed(cat, in.ContentType):
		ve.Add(in.Field.Name, fmt.Sprintf("invalid file type %q. Allowed types: %s",
			in.ContentType, strings.Join(schema.AllowedMIMETypes(cat), ", ")))
	case int64(len(in.Data)) > u.maxBytes:
		ve.Add(in.Field.Name, fmt.Sprintf("file size should be less than %dMB", u.maxBytes>>20))
	case len(in.Data) == 0:
		ve.Add(in.Field.Name, "file is empty")
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ObjectKey строит ключ объекта: uploads/<field>/<unixMillis>_<sanitized name>.
func ObjectKey(field, fileName string, at time.Time) string {
	return fmt.Sprintf("uploads/%s/%d_%s", field, at.UnixMilli(), SanitizeFileName(fileName))
}

// SanitizeFileName заменяет всё, кроме латиницы, цифр и точки, на "_".
func SanitizeFileName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "_")
}
