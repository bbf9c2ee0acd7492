package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guloader/guloader/pkg/data"
	"github.com/guloader/guloader/pkg/fetch"
	"github.com/guloader/guloader/pkg/sources"
	"github.com/guloader/guloader/pkg/storage"
)

// catalogServer emulates an eros front page with two titles plus their
// covers.
func catalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/covers/"):
			var buf bytes.Buffer
			if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 300, 400))); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write(buf.Bytes())
		case r.URL.Path == "/":
			fmt.Fprintf(w, `
			<div class="utao styletwo">
				<div class="imgu"><a class="series" href="%s/manga/alpha"><img src="%s/covers/alpha.png"/></a></div>
				<h4>Alpha Story</h4>
			</div>
			<div class="utao styletwo">
				<div class="imgu"><a class="series" href="%s/manga/beta"><img src="%s/covers/beta.png"/></a></div>
				<h4>Beta Story</h4>
			</div>`, srv.URL, srv.URL, srv.URL, srv.URL)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func catalogFixture(t *testing.T, srv *httptest.Server) (*CatalogService, *memStore, string) {
	t.Helper()

	cfg := testConfig(srv.URL)
	root := t.TempDir()
	cfg.Storage.BasePath = filepath.Join(root, "downloads")
	cfg.Storage.ScansPath = filepath.Join(root, "scans")

	store := newMemStore()
	client := fetch.New()
	registry := sources.NewRegistry(client)
	st := storage.NewManager(cfg.Storage)
	scan := NewScanService(cfg, store, registry)
	download := NewDownloadService(cfg, store, registry, client, st)

	return NewCatalogService(cfg, store, registry, client, st, scan, download), store, root
}

func TestCheckSiteRegistersNewTitles(t *testing.T) {
	srv := catalogServer(t)
	catalog, store, root := catalogFixture(t, srv)

	added, err := catalog.CheckSite(context.Background(), "eros", false)
	require.NoError(t, err)
	require.Len(t, added, 2)

	assert.Equal(t, "Alpha Story", added[0].Title)
	assert.Equal(t, srv.URL+"/manga/alpha", added[0].URL)
	assert.Equal(t, data.MangaActive, added[0].Status)

	stored, err := store.GetMangaByURL(srv.URL + "/manga/beta")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Beta Story", stored.Title)

	// cover thumbnails are written alongside the title directories
	_, err = os.Stat(filepath.Join(root, "downloads", "Alpha Story", "cover_thumb.jpg"))
	assert.NoError(t, err)
}

func TestCheckSiteSkipsKnownTitles(t *testing.T) {
	srv := catalogServer(t)
	catalog, store, _ := catalogFixture(t, srv)

	known := data.NewManga("Alpha Story", "eros", srv.URL+"/manga/alpha")
	require.NoError(t, store.CreateManga(known))

	added, err := catalog.CheckSite(context.Background(), "eros", false)
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, "Beta Story", added[0].Title)
}

func TestCheckSiteUnknownSite(t *testing.T) {
	srv := catalogServer(t)
	catalog, _, _ := catalogFixture(t, srv)

	_, err := catalog.CheckSite(context.Background(), "webtoon", false)
	assert.ErrorIs(t, err, sources.ErrSiteNotSupported)
}

func TestCheckSiteSurvivesMissingCovers(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `
		<div class="utao styletwo">
			<div class="imgu"><a class="series" href="%s/manga/alpha"><img src="%s/covers/missing.png"/></a></div>
			<h4>Alpha Story</h4>
		</div>`, srv.URL, srv.URL)
	}))
	defer srv.Close()
	catalog, _, _ := catalogFixture(t, srv)

	added, err := catalog.CheckSite(context.Background(), "eros", false)
	require.NoError(t, err)
	assert.Len(t, added, 1)
}
