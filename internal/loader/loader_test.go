package loader_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Pallavikumarimdb/VexonAI/internal/github"
	"github.com/Pallavikumarimdb/VexonAI/internal/loader"
	appErr "github.com/Pallavikumarimdb/VexonAI/internal/pkg/errors"
	"github.com/Pallavikumarimdb/VexonAI/internal/ratelimit"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	branch string
	tree   []map[string]interface{}
	blobs  map[string]string
}

func (f *fakeRepo) serve() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/repos/acme/widgets/git/trees/"):
			branch := strings.TrimPrefix(r.URL.Path, "/repos/acme/widgets/git/trees/")
			if branch != f.branch {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"tree": f.tree})
		case strings.HasPrefix(r.URL.Path, "/repos/acme/widgets/git/blobs/"):
			sha := strings.TrimPrefix(r.URL.Path, "/repos/acme/widgets/git/blobs/")
			content, ok := f.blobs[sha]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			fmt.Fprintf(w, `{"content":%q,"encoding":"base64"}`, base64.StdEncoding.EncodeToString([]byte(content)))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestLoader(t *testing.T, srvURL string, maxFileSize int64) *loader.RepoLoader {
	t.Helper()
	host := ratelimit.NewHostQueue(0)
	t.Cleanup(host.Close)
	cli := github.NewClient(github.WithBaseURLs(srvURL, srvURL))
	return loader.NewRepoLoader(cli, host, maxFileSize)
}

func TestLoadFiltersNoise(t *testing.T) {
	repo := &fakeRepo{
		branch: "main",
		tree: []map[string]interface{}{
			{"path": "main.go", "type": "blob", "sha": "s1", "size": 20},
			{"path": "docs/README.md", "type": "blob", "sha": "s2", "size": 15},
			{"path": "package-lock.json", "type": "blob", "sha": "s3", "size": 9000},
			{"path": "assets/logo.png", "type": "blob", "sha": "s4", "size": 512},
			{"path": "huge.txt", "type": "blob", "sha": "s5", "size": 200000},
			{"path": "src", "type": "tree", "sha": "s6", "size": 0},
		},
		blobs: map[string]string{
			"s1": "package main\n",
			"s2": "# widgets\n",
			"s3": "{}",
			"s4": "binary",
			"s5": "x",
		},
	}
	srv := repo.serve()
	defer srv.Close()

	l := newTestLoader(t, srv.URL, 100*1024)
	docs, err := l.Load(context.Background(), "https://github.com/acme/widgets", "tok")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "main.go", docs[0].FileName)
	require.Equal(t, "package main\n", docs[0].PageContent)
	require.Equal(t, int64(len("package main\n")), docs[0].Size)
	require.Equal(t, "docs/README.md", docs[1].FileName)
}

func TestLoadFallsBackToMaster(t *testing.T) {
	repo := &fakeRepo{
		branch: "master",
		tree: []map[string]interface{}{
			{"path": "app.py", "type": "blob", "sha": "s1", "size": 10},
		},
		blobs: map[string]string{"s1": "print('hi')\n"},
	}
	srv := repo.serve()
	defer srv.Close()

	l := newTestLoader(t, srv.URL, 100*1024)
	docs, err := l.Load(context.Background(), "https://github.com/acme/widgets", "tok")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "app.py", docs[0].FileName)
}

func TestLoadSkipsFailedBlobs(t *testing.T) {
	repo := &fakeRepo{
		branch: "main",
		tree: []map[string]interface{}{
			{"path": "a.go", "type": "blob", "sha": "s1", "size": 10},
			{"path": "b.go", "type": "blob", "sha": "missing", "size": 10},
		},
		blobs: map[string]string{"s1": "package a\n"},
	}
	srv := repo.serve()
	defer srv.Close()

	l := newTestLoader(t, srv.URL, 100*1024)
	docs, err := l.Load(context.Background(), "https://github.com/acme/widgets", "tok")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "a.go", docs[0].FileName)
}

func TestLoadTreeFailureYieldsZeroDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	l := newTestLoader(t, srv.URL, 100*1024)
	docs, err := l.Load(context.Background(), "https://github.com/acme/widgets", "tok")
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestLoadRequiresToken(t *testing.T) {
	l := newTestLoader(t, "http://127.0.0.1:1", 100*1024)
	_, err := l.Load(context.Background(), "https://github.com/acme/widgets", "  ")
	require.ErrorIs(t, err, appErr.ErrAuthRequired)
}
