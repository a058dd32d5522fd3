package source

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/mikey/spam-detector/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"
)

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.json"), []byte(`{"kind":"x"}`), 0o600))

	src := NewFileSource(dir, zap.NewNop())

	data, err := src.Fetch(context.Background(), "model.json")
	require.NoError(t, err)
	assert.Equal(t, `{"kind":"x"}`, string(data))

	_, err = src.Fetch(context.Background(), "vectorizer.json")
	assert.ErrorIs(t, err, core.ErrArtifactNotFound)
}

func TestFileSourceUnreadable(t *testing.T) {
	dir := t.TempDir()
	// a directory where a file is expected cannot be read but does exist
	require.NoError(t, os.Mkdir(filepath.Join(dir, "model.json"), 0o700))

	_, err := NewFileSource(dir, zap.NewNop()).Fetch(context.Background(), "model.json")
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrArtifactNotFound)
}

func TestSQLSourceSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE artifacts (name TEXT PRIMARY KEY, payload BLOB)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO artifacts (name, payload) VALUES (?, ?)`, "model.json", []byte("payload"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	src, err := NewSQLSource(context.Background(), DialectSQLite, path, "artifacts", zap.NewNop())
	require.NoError(t, err)
	defer src.Stop()

	data, err := src.Fetch(context.Background(), "model.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	_, err = src.Fetch(context.Background(), "vectorizer.json")
	assert.ErrorIs(t, err, core.ErrArtifactNotFound)
	assert.Equal(t, "sql:sqlite3", src.Describe())
}

func TestSQLSourceMissingTable(t *testing.T) {
	src, err := NewSQLSource(context.Background(), DialectSQLite, filepath.Join(t.TempDir(), "empty.db"), "artifacts", zap.NewNop())
	require.NoError(t, err)
	defer src.Stop()

	_, err = src.Fetch(context.Background(), "model.json")
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrArtifactNotFound)
}

func TestSQLSourceRejectsTableName(t *testing.T) {
	_, err := NewSQLSourceFromDB(nil, DialectMySQL, "artifacts; DROP TABLE x", zap.NewNop())
	assert.Error(t, err)
}

func TestSQLSourcePostgresPlaceholder(t *testing.T) {
	src, err := NewSQLSourceFromDB(nil, DialectPostgres, "model_artifacts", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "SELECT payload FROM model_artifacts WHERE name = $1", src.query)
}

type fakeS3 struct {
	objects map[string][]byte
	err     error
	keys    []string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.keys = append(f.keys, *in.Key)
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3Source(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{"spam/v3/model.json": []byte("model")}}
	src := NewS3Source(client, "artifacts", "spam/v3", zap.NewNop())

	data, err := src.Fetch(context.Background(), "model.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("model"), data)

	_, err = src.Fetch(context.Background(), "vectorizer.json")
	assert.ErrorIs(t, err, core.ErrArtifactNotFound)
	assert.Equal(t, []string{"spam/v3/model.json", "spam/v3/vectorizer.json"}, client.keys)
	assert.Equal(t, "s3://artifacts/spam/v3", src.Describe())
}

func TestS3SourceError(t *testing.T) {
	src := NewS3Source(&fakeS3{err: errors.New("access denied")}, "artifacts", "", zap.NewNop())

	_, err := src.Fetch(context.Background(), "model.json")
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrArtifactNotFound)
}

func TestGCSSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/model.json") {
			_, _ = w.Write([]byte("model"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"No such object"}}`))
	}))
	defer srv.Close()

	service, err := storage.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	src := NewGCSSourceFromService(service, "artifacts", "spam", zap.NewNop())

	data, err := src.Fetch(context.Background(), "model.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("model"), data)

	_, err = src.Fetch(context.Background(), "vectorizer.json")
	assert.ErrorIs(t, err, core.ErrArtifactNotFound)
}
