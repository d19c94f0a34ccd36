package commands

// Display formats and defaults
const (
	TimestampFormat           = "2006-01-02 15:04:05"
	DefaultHistoryLimit       = 20
	DefaultHistorySearchLimit = 50
	DefaultTopUsers           = 5
	PreviewWidth              = 60
	StdinPath                 = "-"
)

// Error messages
const (
	ErrDoctorServiceUnavailable = "doctor service unavailable"
	ErrHistoryStoreUnavailable  = "history store unavailable"
	ErrCacheStoreUnavailable    = "cache store unavailable"
	ErrRendererUnavailable      = "renderer unavailable"
	ErrQueryRequired            = "--query required"
	ErrRenderOutputRequired     = "at least one of --png or --pdf is required"
)

// Success messages
const (
	MsgConfigurationValid       = "Configuration valid"
	MsgNoDifferencesFromDefault = "No differences from default configuration."
	MsgNoHistoryRecorded        = "No questions recorded yet."
	MsgNoCachedResponses        = "No cached responses."
)
