package controlplane

import (
	"github.com/raccreative/clawdrop/internal/target"
	"github.com/raccreative/clawdrop/internal/transfer"
)

type RequestUploadParams struct {
	// Version is the os label of the build, not its version string.
	Version string `json:"version"`
	// Fileindex is the encoded local index.
	Fileindex string `json:"fileindex"`
}

type ExtraUploads struct {
	Manifest  string `json:"manifest"`
	Fileindex string `json:"fileindex"`
}

type ExtraDownloads struct {
	// Fileindex is nil on the first publish for an os.
	Fileindex *string `json:"fileindex"`
}

type RequestUploadResponse struct {
	UploadCredentials transfer.ScopedCredentials `json:"uploadCredentials"`
	DeleteCredentials transfer.ScopedCredentials `json:"deleteCredentials"`
	ExtraUploads      ExtraUploads               `json:"extraUploads"`
	ExtraDownloads    ExtraDownloads             `json:"extraDownloads"`
	OriginalZipName   *string                    `json:"originalZipName"`
	UploadID          string                     `json:"uploadId"`
}

type VerifyUploadParams struct {
	Version  string `json:"version"`
	UploadID string `json:"uploadId"`
}

type CompletePushParams struct {
	OS         string `json:"os"`
	NewVersion string `json:"newVersion"`
	FileName   string `json:"fileName"`
}

type developedGamesResponse struct {
	Games []target.Game `json:"games"`
}
