// Package catalog holds the canonical book set synchronized from the remote
// store, plus the defensive normalization of its heterogeneous records.
package catalog

import (
	"github.com/svvaap/bookhive/internal/entities"
	"github.com/svvaap/bookhive/internal/remote"
)

// Normalize converts an arbitrary remote record into a canonical Book.
// Upstream writers have stored price as both a string and a number, and
// individual fields go missing; every field is coerced independently so a
// single bad field never drops the whole book from a list. Returns nil only
// when the raw value is not a record at all (e.g. a bare scalar).
func Normalize(v remote.Value) *entities.Book {
	if !v.IsRecord() {
		return nil
	}
	price := v.Child("price").FloatOr(0)
	if price < 0 {
		price = 0
	}
	return &entities.Book{
		Title:         v.Child("title").StringOr(""),
		Author:        v.Child("author").StringOr(""),
		Category:      v.Child("category").StringOr(""),
		Language:      v.Child("language").StringOr(""),
		Description:   v.Child("description").StringOr(""),
		Price:         price,
		CoverImageURL: v.Child("coverImageUrl").StringOr(""),
		FileURL:       v.Child("fileUrl").StringOr(""),
		Visibility:    v.Child("visibility").StringOr(""),
		UploadDate:    v.Child("uploadDate").StringOr(""),
	}
}

// RecordFromBook renders a Book back into the wire shape used under
// ebooks/{bookId}. The id lives in the path key, not the record.
func RecordFromBook(b entities.Book) map[string]any {
	return map[string]any{
		"title":         b.Title,
		"author":        b.Author,
		"category":      b.Category,
		"language":      b.Language,
		"description":   b.Description,
		"price":         b.Price,
		"coverImageUrl": b.CoverImageURL,
		"fileUrl":       b.FileURL,
		"visibility":    b.Visibility,
		"uploadDate":    b.UploadDate,
	}
}
