package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestPageImageOrder(t *testing.T) {
	cases := []struct {
		html string
		want string
	}{
		{`<html><head><meta property="og:image" content="https://i/og.jpg"><meta name="twitter:image" content="https://i/tw.jpg"></head><body><img src="/a.jpg"></body></html>`, "https://i/og.jpg"},
		{`<html><head><meta name="twitter:image" content="https://i/tw.jpg"></head><body><img src="/a.jpg"></body></html>`, "https://i/tw.jpg"},
		{`<html><body><img src=""><img src="/a.jpg"><img src="/b.jpg"></body></html>`, "/a.jpg"},
		{`<html><body><p>no image</p></body></html>`, ""},
	}
	for _, tc := range cases {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(tc.html))
		if err != nil {
			t.Fatalf("parse html: %v", err)
		}
		if got := pageImage(doc.Selection); got != tc.want {
			t.Fatalf("pageImage = %q, want %q", got, tc.want)
		}
	}
}

func TestImageEnricherFallsBackToFirstImg(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/og", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><meta property="og:image" content="https://cdn.example/og.jpg"></head><body></body></html>`))
	})
	mux.HandleFunc("/img", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><img src="/static/first.png"></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	items := []NewsItem{
		{ID: "og", Link: srv.URL + "/og"},
		{ID: "img", Link: srv.URL + "/img"},
		{ID: "keep", Link: srv.URL + "/og", PreviewImageURL: "https://cdn.example/own.jpg"},
	}
	(&ImageEnricher{MaxItems: 5}).Enrich(context.Background(), items)

	if items[0].PreviewImageURL != "https://cdn.example/og.jpg" {
		t.Fatalf("og item image = %q", items[0].PreviewImageURL)
	}
	if items[1].PreviewImageURL != srv.URL+"/static/first.png" {
		t.Fatalf("img item image = %q", items[1].PreviewImageURL)
	}
	if items[2].PreviewImageURL != "https://cdn.example/own.jpg" {
		t.Fatalf("existing image overwritten: %q", items[2].PreviewImageURL)
	}
}
