package model

import (
	"time"
)

// File is the metadata record for one stored file. StorageName is the
// system-generated key for the bytes in the object store and never changes;
// OriginalName is the user-facing display name and is the only name rename
// touches.
type File struct {
	ID             string     `db:"id"`
	OwnerID        string     `db:"owner_id"`
	OriginalName   string     `db:"original_name"`
	StorageName    string     `db:"storage_name"`
	Size           int64      `db:"size"`
	Comment        string     `db:"comment"`
	UploadedAt     time.Time  `db:"uploaded_at"`
	LastDownload   *time.Time `db:"last_download"`
	ShareToken     *string    `db:"share_token"`
	ShareExpiresAt *time.Time `db:"share_expires_at"`
}

// HasShareLink reports whether a share token has ever been issued for this
// file. An expired link still counts: the token stays bound for audit.
func (f *File) HasShareLink() bool {
	return f.ShareToken != nil && *f.ShareToken != ""
}

// ShareLinkExpired reports whether the issued share link is past its expiry.
func (f *File) ShareLinkExpired(now time.Time) bool {
	return f.HasShareLink() && f.ShareExpiresAt != nil && now.After(*f.ShareExpiresAt)
}
