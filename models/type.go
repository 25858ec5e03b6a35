package models

import (
	"time"
)

// ImageRecord is one stored asset. Buffer is never persisted with the
// metadata; it is only filled in when a record is fetched by id.
type ImageRecord struct {
	ID           string    `json:"id" bson:"image_id"`
	Filename     string    `json:"filename" bson:"filename"`
	OriginalName string    `json:"originalName" bson:"original_name"`
	Size         int64     `json:"size" bson:"size"`
	Mimetype     string    `json:"mimetype" bson:"mimetype"`
	Tags         []string  `json:"tags" bson:"tags"`
	UploadDate   time.Time `json:"uploadDate" bson:"upload_date"`
	Buffer       []byte    `json:"-" bson:"-"`
}

// Metadata returns a copy of the record without its payload.
func (r ImageRecord) Metadata() ImageRecord {
	r.Buffer = nil
	if r.Tags != nil {
		r.Tags = append([]string(nil), r.Tags...)
	}
	return r
}

// SearchParams filters and pages a search. Zero Limit means the store default.
type SearchParams struct {
	Tags   []string
	Limit  int
	Offset int
}

// SearchQuery is the query string accepted by the search endpoint.
type SearchQuery struct {
	Tags   string `form:"tags"`
	Limit  *int   `form:"limit" binding:"omitempty,min=1,max=1000"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

// DownloadQuery is the query string accepted by the download endpoint.
type DownloadQuery struct {
	ID     string `form:"id" binding:"required"`
	Format string `form:"format" binding:"required"`
	Size   *int   `form:"size"`
}
