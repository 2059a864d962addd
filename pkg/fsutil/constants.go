package fsutil

// File and directory permission constants.
const (
	// Default file modes.
	FileModeDefault = 0o644 // -rw-r--r--
	FileModeSecure  = 0o640 // -rw-r-----

	// Default directory modes.
	DirModeDefault = 0o755 // drwxr-xr-x
	DirModePrivate = 0o700 // drwx------
)

// DownloadSuffix is appended to a target path while its content is still
// being written. Files carrying it are never treated as part of a mirror.
const DownloadSuffix = ".downloading"
