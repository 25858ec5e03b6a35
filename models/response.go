package models

import "time"

// ImageResponse is the JSON shape of a record returned by search.
type ImageResponse struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	Size         int64     `json:"size"`
	Mimetype     string    `json:"mimetype"`
	Tags         []string  `json:"tags"`
	UploadDate   time.Time `json:"uploadDate"`
}

func NewImageResponse(r ImageRecord) ImageResponse {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return ImageResponse{
		ID:           r.ID,
		Filename:     r.Filename,
		OriginalName: r.OriginalName,
		Size:         r.Size,
		Mimetype:     r.Mimetype,
		Tags:         tags,
		UploadDate:   r.UploadDate,
	}
}

type UploadResponse struct {
	Success bool   `json:"success"`
	ImageID string `json:"imageId"`
}
