package app

// Activity is what the task page is busy with. Only one activity runs at a time.
type Activity int

const (
	Idle Activity = iota
	LoggingIn
	FetchingTasks
	Downloading
	Uploading
)

func (a Activity) String() string {
	switch a {
	case Idle:
		return "idle"
	case LoggingIn:
		return "logging in"
	case FetchingTasks:
		return "fetching tasks"
	case Downloading:
		return "downloading"
	case Uploading:
		return "uploading"
	default:
		return "unknown"
	}
}

// Status line texts per activity
const (
	statusLoggingIn     = "Logging in."
	statusFetchingTasks = "Login Successful.\nFetching current tasks."
	statusDownloading   = "Downloading..."
	statusUploading     = "Uploading..."
)

// User-facing messages
const (
	msgBusy           = "Already performing I/O please wait until the operation is complete before performing another one."
	msgLoginFailed    = "Could not log in: "
	msgTasksFailed    = "Could not get tasks: "
	msgDownloadOK     = "Download Successful!"
	msgDownloadFailed = "Download Failed: "
	msgUploadOK       = "Upload Successful!"
	msgUploadFailed   = "Upload Failed: "
	msgInvalidURL     = "Not a ShotGrid site URL: "
	msgSaveFailed     = "Could not save credentials: "
	msgLogoutFailed   = "Could not log out: "
)
