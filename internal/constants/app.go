package constants

import (
	"time"
)

// Application identity
const (
	// AppID is the Fyne application ID (also used for the preferences store)
	AppID = "com.pipelinekit.sgdesk"

	// AppName is the user-visible window title
	AppName = "ShotGrid Client"

	// DefaultWindowWidth and DefaultWindowHeight size the main window on first launch
	DefaultWindowWidth  = 840
	DefaultWindowHeight = 620
)

// Credential persistence
const (
	// CredentialsFileName - saved site URL and login, relative to the working directory
	CredentialsFileName = ".config.json"

	// CredentialsFileMode - owner read/write only, the file holds a password
	CredentialsFileMode = 0600

	// DefaultSiteURL - URL entry placeholder; the user fills in the sub domain
	DefaultSiteURL = "https://.shotgrid.autodesk.com/"

	// SiteURLCursorPosition places the cursor right after "https://"
	SiteURLCursorPosition = 8
)

// Background jobs
const (
	// DefaultJobWorkers - worker goroutines in the job dispatcher
	// Two is enough for a login/fetch chain to overlap one transfer.
	DefaultJobWorkers = 2

	// MaxJobWorkers - upper bound for SGDESK_WORKERS
	MaxJobWorkers = 16

	// ShutdownTimeout - how long app exit waits for running jobs
	ShutdownTimeout = 5 * time.Second
)

// ShotGrid REST API
const (
	// APIPathPrefix is the REST API root under the site URL
	APIPathPrefix = "/api/v1"

	// TokenPath is the OAuth2 password-grant endpoint under the site URL
	TokenPath = APIPathPrefix + "/auth/access_token"

	// SearchPageSize - records per page for _search requests (API maximum is 500)
	SearchPageSize = 500

	// UploadFieldName - Version field that receives uploaded media
	UploadFieldName = "sg_uploaded_movie"

	// AuthTimeout - bound on the token request during login
	AuthTimeout = 60 * time.Second
)

// Rate limiting (client side)
// ShotGrid throttles per site; these keep one desktop client well below that.
const (
	// DefaultRequestsPerSecond - steady-state API request rate
	DefaultRequestsPerSecond = 10.0

	// DefaultRequestBurst - requests allowed in a burst before pacing kicks in
	DefaultRequestBurst = 20
)

// Retry configuration (idempotent reads only)
const (
	// MaxRetries - maximum number of retries for a read request
	MaxRetries = 4

	// RetryWaitMin - initial delay before first retry
	RetryWaitMin = 500 * time.Millisecond

	// RetryWaitMax - maximum delay between retries
	RetryWaitMax = 10 * time.Second
)

// Disk space safety margin
const (
	// DiskSpaceBufferPercent - additional space to require beyond attachment sizes (15%)
	DiskSpaceBufferPercent = 0.15
)

// Event bus configuration
const (
	// EventBusDefaultBuffer - default buffer size for event channels
	EventBusDefaultBuffer = 256

	// EventBusMaxBuffer - maximum buffer size
	EventBusMaxBuffer = 4096
)

// Progress reporting
const (
	// ProgressReportInterval - minimum time between byte-progress events for one file
	ProgressReportInterval = 200 * time.Millisecond
)

// HTTP Client Timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (30 seconds)
	HTTPTLSHandshakeTimeout = 30 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// HTTPResponseHeaderTimeout - time to wait for response headers on API calls
	HTTPResponseHeaderTimeout = 60 * time.Second

	// HTTPAPITimeout - overall timeout for a single API request
	// Transfers use a client without an overall timeout.
	HTTPAPITimeout = 120 * time.Second
)
