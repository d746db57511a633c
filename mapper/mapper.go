// Package mapper builds posts from extracted records according to a
// connector's field mapping.
package mapper

import (
	"context"
	"errors"
	"fmt"
	"html"
	"maps"
	"net/url"

	"github.com/fwojciec/postmap"
)

// PlaceholderTitle is the title of a draft while its import is running.
const PlaceholderTitle = "postmap - Currently Importing"

const placeholderContent = "This post is currently being imported by postmap. It should be finished shortly. " +
	"You can safely delete this post if postmap failed to extract data from:<br /><strong>%s</strong>"

// DefaultAltField is the sibling field holding alt text for image fields.
// A field-specific "<name>/_alt" sibling is used only when it is absent.
const DefaultAltField = "image/_alt"

// Mapper converts one extraction response into posts.
// A Mapper makes its external calls sequentially and holds no state
// between calls to BuildPost.
type Mapper struct {
	connectorID string
	mapping     postmap.FieldMapping
	extractions postmap.ExtractionService
	posts       postmap.PostService
	images      postmap.ImageLoader
}

// New returns a Mapper for the given connector and field mapping.
// The mapping is copied so later changes by the caller have no effect.
func New(connectorID string, mapping postmap.FieldMapping, extractions postmap.ExtractionService, posts postmap.PostService, images postmap.ImageLoader) (*Mapper, error) {
	if connectorID == "" {
		return nil, postmap.Errorf(postmap.EINVALID, "connector ID required")
	}
	if extractions == nil || posts == nil || images == nil {
		return nil, postmap.Errorf(postmap.EINVALID, "extraction, post and image services required")
	}
	return &Mapper{
		connectorID: connectorID,
		mapping:     maps.Clone(mapping),
		extractions: extractions,
		posts:       posts,
		images:      images,
	}, nil
}

// BuildPost extracts records from rawURL and builds one post per record.
//
// An invalid URL is returned as an EINVALID error before any external call.
// All other failures are reported through fn and make BuildPost return
// false. Processing stops at the first record that cannot be persisted;
// posts persisted earlier in the same call are kept. fn may be nil.
func (m *Mapper) BuildPost(ctx context.Context, rawURL string, fn postmap.StatusFunc) (bool, error) {
	if err := ValidateURL(rawURL); err != nil {
		return false, err
	}

	report := func(ev postmap.StatusEvent) {
		if fn != nil {
			ev.URL = rawURL
			fn(ev)
		}
	}

	result, err := m.extractions.Extract(ctx, m.connectorID, rawURL)
	if err != nil || result == nil {
		report(postmap.StatusEvent{Status: postmap.StatusExtractionFailed, Err: err})
		return false, nil
	}

	if len(result.Results) == 0 {
		report(postmap.StatusEvent{Status: postmap.StatusExtractedDataNull})
		return false, nil
	}

	for i := range result.Results {
		ev := m.buildRecord(ctx, rawURL, result, &result.Results[i])
		report(ev)
		if ev.Status != postmap.StatusPostExtracted {
			return false, nil
		}
	}

	return true, nil
}

// buildRecord creates, fills and persists the post for one record.
func (m *Mapper) buildRecord(ctx context.Context, rawURL string, result *postmap.ExtractionResult, record *postmap.Record) postmap.StatusEvent {
	post := &postmap.Post{
		ConnectorID: m.connectorID,
		SourceURL:   rawURL,
		Status:      postmap.PostDraft,
		Title:       PlaceholderTitle,
		Content:     fmt.Sprintf(placeholderContent, html.EscapeString(rawURL)),
	}
	err := m.posts.CreatePost(ctx, post)
	if err == nil && post.ID == "" {
		err = postmap.Errorf(postmap.EINTERNAL, "post created without ID")
	}
	if err != nil {
		return postmap.StatusEvent{Status: postmap.StatusPostInsertFailed, Err: err}
	}

	draft := NewDraft(post.ID)
	for _, field := range record.Fields {
		m.applyField(ctx, draft, result.PropertyType(field.Name), field, record)
	}

	title, content := draft.Title(), draft.Content()
	if _, err := m.posts.UpdatePost(ctx, post.ID, postmap.PostUpdate{
		Title:   &title,
		Content: &content,
	}); err != nil {
		if delErr := m.posts.DeletePost(ctx, post.ID); delErr != nil {
			err = errors.Join(err, fmt.Errorf("deleting draft %s: %w", post.ID, delErr))
		}
		return postmap.StatusEvent{Status: postmap.StatusPostInsertFailed, Err: err}
	}

	return postmap.StatusEvent{Status: postmap.StatusPostExtracted, PostID: post.ID}
}

// applyField routes one field into the draft according to its role and type.
// Unmapped fields and role/type combinations without a meaning are ignored.
func (m *Mapper) applyField(ctx context.Context, draft *Draft, typ postmap.PropertyType, field postmap.Field, record *postmap.Record) {
	role, ok := m.mapping[field.Name]
	if !ok {
		return
	}

	switch role {
	case postmap.RolePostTitle:
		if typ == postmap.PropertyString {
			for _, v := range field.Values {
				draft.AppendTitle(v)
			}
		}

	case postmap.RolePostContent:
		switch typ {
		case postmap.PropertyString:
			for _, v := range field.Values {
				draft.AppendContent(v)
			}
		case postmap.PropertyImage:
			m.sideload(ctx, draft, field, record, true)
		}

	case postmap.RoleImportOnly:
		if typ == postmap.PropertyImage {
			m.sideload(ctx, draft, field, record, false)
		}
	}
}

// sideload loads every image of field into the draft's post. When embed is
// set, the returned fragments are appended to the content. Failed images
// are skipped.
func (m *Mapper) sideload(ctx context.Context, draft *Draft, field postmap.Field, record *postmap.Record, embed bool) {
	alts := altTexts(record, field.Name)
	for i, src := range field.Values {
		var alt string
		if i < len(alts) {
			alt = alts[i]
		}

		fragment, err := m.images.Sideload(ctx, src, draft.ID, alt)
		if err != nil {
			continue
		}
		if embed {
			draft.AppendContent(fragment)
		}
	}
}

// altTexts returns the alt values for the named image field, preferring
// DefaultAltField over "<name>/_alt".
func altTexts(record *postmap.Record, name string) []string {
	for _, key := range []string{DefaultAltField, name + "/_alt"} {
		if alts, ok := record.Get(key); ok && len(alts) > 0 {
			return alts
		}
	}
	return nil
}

// ValidateURL returns EINVALID unless raw is an absolute URL with a host.
func ValidateURL(raw string) error {
	if raw == "" {
		return postmap.Errorf(postmap.EINVALID, "URL required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return postmap.Errorf(postmap.EINVALID, "invalid URL %q", raw)
	}
	return nil
}
