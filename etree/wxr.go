// Package etree writes posts as a WordPress eXtended RSS (WXR) export using
// the etree XML library.
package etree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/beevik/etree"
	"github.com/fwojciec/postmap"
)

// WXRVersion is the WordPress export format version written.
const WXRVersion = "1.2"

// Namespaces declared on the rss element.
const (
	nsExcerpt = "http://wordpress.org/export/1.2/excerpt/"
	nsContent = "http://purl.org/rss/1.0/modules/content/"
	nsDC      = "http://purl.org/dc/elements/1.1/"
	nsWP      = "http://wordpress.org/export/1.2/"
)

// wpDate is the layout of wp:post_date.
const wpDate = "2006-01-02 15:04:05"

// Ensure WXRWriter implements postmap.PostExporter at compile time.
var _ postmap.PostExporter = (*WXRWriter)(nil)

// WXRWriter stages posts and their attachments and writes them to a single
// WXR file on Commit. The file is replaced atomically.
type WXRWriter struct {
	path        string
	attachments postmap.AttachmentService

	// SiteTitle and SiteURL describe the channel.
	SiteTitle string
	SiteURL   string

	// Author is written as dc:creator of every item.
	Author string

	mu     sync.Mutex
	doc    *etree.Document
	nextID int
}

// NewWXRWriter creates a writer targeting path. Attachments of each saved
// post are looked up in attachments.
func NewWXRWriter(path string, attachments postmap.AttachmentService) *WXRWriter {
	return &WXRWriter{
		path:        path,
		attachments: attachments,
		SiteTitle:   "postmap export",
		Author:      "postmap",
	}
}

func (w *WXRWriter) channel() *etree.Element {
	if w.doc == nil {
		w.doc = etree.NewDocument()
		w.doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

		rss := w.doc.CreateElement("rss")
		rss.CreateAttr("version", "2.0")
		rss.CreateAttr("xmlns:excerpt", nsExcerpt)
		rss.CreateAttr("xmlns:content", nsContent)
		rss.CreateAttr("xmlns:dc", nsDC)
		rss.CreateAttr("xmlns:wp", nsWP)

		ch := rss.CreateElement("channel")
		ch.CreateElement("title").SetText(w.SiteTitle)
		ch.CreateElement("link").SetText(w.SiteURL)
		ch.CreateElement("language").SetText("en")
		ch.CreateElement("wp:wxr_version").SetText(WXRVersion)
		w.nextID = 1
	}
	return w.doc.SelectElement("rss").SelectElement("channel")
}

// Save stages post and its attachments as WXR items.
func (w *WXRWriter) Save(ctx context.Context, post *postmap.Post) error {
	attachments, err := w.attachments.FindAttachments(ctx, postmap.AttachmentFilter{PostID: &post.ID})
	if err != nil {
		return fmt.Errorf("finding attachments of post %s: %w", post.ID, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	ch := w.channel()

	parentID := w.nextID
	w.nextID++

	item := ch.CreateElement("item")
	item.CreateElement("title").SetText(post.Title)
	item.CreateElement("link").SetText(post.SourceURL)
	item.CreateElement("dc:creator").CreateCData(w.Author)
	guid := item.CreateElement("guid")
	guid.CreateAttr("isPermaLink", "false")
	guid.SetText("postmap:" + post.ID)
	item.CreateElement("content:encoded").CreateCData(post.Content)
	item.CreateElement("excerpt:encoded").CreateCData("")
	item.CreateElement("wp:post_id").SetText(strconv.Itoa(parentID))
	item.CreateElement("wp:post_date").SetText(post.CreatedAt.UTC().Format(wpDate))
	item.CreateElement("wp:post_date_gmt").SetText(post.CreatedAt.UTC().Format(wpDate))
	item.CreateElement("wp:status").SetText(string(post.Status))
	item.CreateElement("wp:post_parent").SetText("0")
	item.CreateElement("wp:post_type").SetText("post")
	addMeta(item, "_postmap_source_url", post.SourceURL)
	addMeta(item, "_postmap_connector", post.ConnectorID)

	for _, a := range attachments {
		id := w.nextID
		w.nextID++

		att := ch.CreateElement("item")
		att.CreateElement("title").SetText(filepath.Base(a.Path))
		att.CreateElement("link").SetText(a.URL)
		att.CreateElement("dc:creator").CreateCData(w.Author)
		g := att.CreateElement("guid")
		g.CreateAttr("isPermaLink", "false")
		g.SetText(a.URL)
		att.CreateElement("content:encoded").CreateCData("")
		att.CreateElement("excerpt:encoded").CreateCData(a.Alt)
		att.CreateElement("wp:post_id").SetText(strconv.Itoa(id))
		att.CreateElement("wp:post_date").SetText(a.CreatedAt.UTC().Format(wpDate))
		att.CreateElement("wp:post_date_gmt").SetText(a.CreatedAt.UTC().Format(wpDate))
		att.CreateElement("wp:status").SetText("inherit")
		att.CreateElement("wp:post_parent").SetText(strconv.Itoa(parentID))
		att.CreateElement("wp:post_type").SetText("attachment")
		att.CreateElement("wp:attachment_url").SetText(a.URL)
		addMeta(att, "_wp_attachment_image_alt", a.Alt)
		addMeta(att, "_postmap_source_url", a.SourceURL)
	}

	return nil
}

func addMeta(item *etree.Element, key, value string) {
	meta := item.CreateElement("wp:postmeta")
	meta.CreateElement("wp:meta_key").CreateCData(key)
	meta.CreateElement("wp:meta_value").CreateCData(value)
}

// Commit writes the staged items to path. An empty export still produces a
// valid document with an empty channel.
func (w *WXRWriter) Commit() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.channel()
	w.doc.Indent(2)

	tmp := w.path + ".tmp"
	if err := w.doc.WriteToFile(tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing WXR: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		os.Remove(tmp)
		return err
	}

	w.doc = nil
	return nil
}

// Abort discards the staged items.
func (w *WXRWriter) Abort() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.doc = nil
	return nil
}
