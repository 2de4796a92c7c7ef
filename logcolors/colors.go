package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Green  = "\033[32m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
	Red    = "\033[31m"
)

// Store-related log prefixes
const (
	LogStoreInit    = Blue + "[Store:Init]" + Reset
	LogStore        = Blue + "[Store]" + Reset
	LogStoreBackup  = Blue + "[Store:Backup]" + Reset
	LogStoreClear   = Blue + "[Store:Clear]" + Reset
	LogStoreBackups = Blue + "[Store:Backups]" + Reset
)

// Rate limiting log prefixes
const (
	LogRateLimit = Purple + "[RateLimit]" + Reset
	LogAPIKey    = Purple + "[APIKey]" + Reset
)

// Server/Init log prefixes
const (
	LogServer = Green + "[Server]" + Reset
	LogConfig = Cyan + "[Config]" + Reset
	LogStats  = Blue + "[Stats]" + Reset
	LogHTTP   = Cyan + "[HTTP]" + Reset
)

// Lyrics core log prefixes
const (
	LogParser   = Cyan + "[Parser]" + Reset
	LogMerge    = Green + "[Merge]" + Reset
	LogTimeline = Blue + "[Timeline]" + Reset
	LogTrack    = Green + "[Track]" + Reset
	LogWarning  = Red + "[Warning]" + Reset
)

// Channel returns a colored prefix naming a lyric channel, e.g. [Parser:tlrc]
func Channel(name string) string {
	return Cyan + "[Parser:" + name + "]" + Reset
}
