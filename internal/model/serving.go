package model

import "time"

// ServingURL is a serving URL minted by the local image provider for a stored file.
type ServingURL struct {
	FilePath  string    `json:"file_path"`
	Token     string    `json:"token"`
	URL       string    `json:"serving_url"`
	CreatedAt time.Time `json:"created_at"`
}
