package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testPage = `<!DOCTYPE html>
<html>
<head><title>Test Page</title></head>
<body>
  <nav>skip this nav</nav>
  <h1>Main Heading</h1>
  <p>First paragraph.</p>
  <script>console.log("skip scripts")</script>
  <h2>Sub Heading</h2>
  <p>Second paragraph.</p>
</body>
</html>`

func TestWebLoader(t *testing.T) {
	ctx := context.Background()

	t.Run("Scrapes Headings And Paragraphs", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(testPage))
		}))
		defer srv.Close()

		docs, err := NewWebLoader([]string{srv.URL}).Load(ctx)
		assert.NoError(t, err)
		assert.Len(t, docs, 1)

		doc := docs[0]
		assert.Equal(t, srv.URL, doc.Source)
		assert.Equal(t, "Test Page", doc.Title)
		assert.Contains(t, doc.Content, "Main Heading")
		assert.Contains(t, doc.Content, "First paragraph.")
		assert.Contains(t, doc.Content, "Second paragraph.")
		assert.NotContains(t, doc.Content, "skip this nav")
		assert.NotContains(t, doc.Content, "console.log")
		assert.Equal(t, srv.URL, doc.Metadata["url"])
		assert.NotEmpty(t, doc.Metadata["scrape_date"])
	})

	t.Run("Failed URL Omitted", func(t *testing.T) {
		good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(testPage))
		}))
		defer good.Close()
		bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusInternalServerError)
		}))
		defer bad.Close()

		docs, err := NewWebLoader([]string{bad.URL, good.URL}).Load(ctx)
		assert.NoError(t, err)
		assert.Len(t, docs, 1)
		assert.Equal(t, good.URL, docs[0].Source)
	})

	t.Run("Order Preserved", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html><head><title>` + r.URL.Path + `</title></head><body><p>content for ` + r.URL.Path + `</p></body></html>`))
		}))
		defer srv.Close()

		urls := []string{srv.URL + "/one", srv.URL + "/two", srv.URL + "/three"}
		docs, err := NewWebLoader(urls, WithWorkers(2)).Load(ctx)
		assert.NoError(t, err)
		assert.Len(t, docs, 3)
		for i, doc := range docs {
			assert.Equal(t, urls[i], doc.Source)
		}
	})

	t.Run("No Extractable Text Omitted", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html><body><div>only divs here</div></body></html>`))
		}))
		defer srv.Close()

		docs, err := NewWebLoader([]string{srv.URL}).Load(ctx)
		assert.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("No URLs", func(t *testing.T) {
		docs, err := NewWebLoader(nil).Load(ctx)
		assert.NoError(t, err)
		assert.Empty(t, docs)
	})
}
