// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultDBPath       = "genofetch.db"
	DefaultBaseURL      = "https://api.ncbi.nlm.nih.gov/datasets/v2alpha"
	DefaultWorkers      = 3
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultRetryCount   = 3
	DefaultRetryBase    = 500 * time.Millisecond
	DefaultRetryMaxWait = 15 * time.Second
)

// Request rates allowed by the catalog, in requests per second.
const (
	RateWithKey    = 10
	RateWithoutKey = 5
)

// Input table column headers. Column order in the file is irrelevant,
// header names are fixed.
const (
	ColCellLine     = "cell_line"
	ColAcceptedName = "Accepted name"
	ColLegacyName   = "Legacy Name"
	ColGenus        = "Genus"
)

// Accession namespace prefixes
const (
	PrefixRefSeq  = "GCF_"
	PrefixGenBank = "GCA_"
)

// File Permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)

// Environment files
const (
	EnvFileName = ".env"
	EnvAPIKey   = "NCBI_API_KEY"
)
